// Package zavod wires the statistics office services onto the RPC command
// table consumed by the gateway.
package zavod

import (
	"context"
	"encoding/json"
	"time"

	"egov/internal/rpc"
	"egov/internal/zavod/report"
	"egov/internal/zavod/survey"
	"egov/pkg/faults"
)

// Services bundles everything the command table dispatches into.
type Services struct {
	Surveys *survey.Service
	Reports *report.Service
}

func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, faults.Wrap(err, faults.KindBadRequest, "malformed payload")
	}
	return v, nil
}

// RegisterCommands installs every zavod command on the RPC server. The
// survey command spellings are wire identifiers inherited from earlier
// clients and must not be corrected.
func RegisterCommands(srv *rpc.Server, svc Services) {
	srv.Handle("createSurway", func(ctx context.Context, payload json.RawMessage) (any, error) {
		dto, err := decode[survey.CreateSurveyDTO](payload)
		if err != nil {
			return nil, err
		}
		return svc.Surveys.CreateSurvey(ctx, dto)
	})
	srv.Handle("getSurway", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			ID string `json:"id"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return svc.Surveys.GetSurvey(ctx, p.ID)
	})
	srv.Handle("getAllSurways", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return svc.Surveys.ListSurveys(ctx)
	})
	srv.Handle("createQuestion", func(ctx context.Context, payload json.RawMessage) (any, error) {
		dto, err := decode[survey.CreateQuestionDTO](payload)
		if err != nil {
			return nil, err
		}
		return svc.Surveys.AddQuestion(ctx, dto)
	})
	srv.Handle("createParticipant", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			SurveyID string `json:"surveyId"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return svc.Surveys.AddParticipant(ctx, p.SurveyID)
	})
	srv.Handle("findParticipantByToken", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			Token string `json:"token"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return svc.Surveys.ParticipantByToken(ctx, p.Token)
	})
	srv.Handle("submitAnswers", func(ctx context.Context, payload json.RawMessage) (any, error) {
		dto, err := decode[survey.SubmitAnswersDTO](payload)
		if err != nil {
			return nil, err
		}
		return svc.Surveys.SubmitAnswers(ctx, dto)
	})
	srv.Handle("getSurveyStatistics", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			SurveyID string `json:"surveyId"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return svc.Surveys.Statistics(ctx, p.SurveyID)
	})

	srv.Handle("generateDuiReport", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			Year int `json:"year"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return svc.Reports.GenerateDui(ctx, p.Year)
	})
	srv.Handle("generateDocsIssuedReport", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			From  time.Time `json:"from"`
			To    time.Time `json:"to"`
			Title string    `json:"title,omitempty"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return svc.Reports.GenerateDocsIssued(ctx, p.From, p.To, p.Title)
	})
	srv.Handle("generateSurveyReport", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			SurveyID string `json:"surveyId"`
			Title    string `json:"title,omitempty"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return svc.Reports.GenerateSurvey(ctx, p.SurveyID, p.Title)
	})
	srv.Handle("getReportById", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			ID string `json:"id"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return svc.Reports.Get(ctx, p.ID)
	})
	srv.Handle("getAllReports", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return svc.Reports.List(ctx)
	})
}
