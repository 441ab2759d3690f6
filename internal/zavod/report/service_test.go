package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"egov/internal/mup/document"
	"egov/internal/mup/infraction"
	"egov/internal/platform/metrics"
	"egov/internal/zavod/survey"
	"egov/pkg/faults"
)

// fakeDispatcher serves canned replies per command, mimicking the JSON
// round trip of the real client.
type fakeDispatcher struct {
	replies map[string]any
	errs    map[string]error
	calls   []string
}

func (f *fakeDispatcher) Send(_ context.Context, _, command string, _, reply any) error {
	f.calls = append(f.calls, command)
	if err, ok := f.errs[command]; ok {
		return err
	}
	raw, err := json.Marshal(f.replies[command])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, reply)
}

type ServiceSuite struct {
	suite.Suite
	store      *MemoryStore
	dispatcher *fakeDispatcher
	surveys    *survey.Service
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	log := slog.New(slog.DiscardHandler)
	s.store = NewMemoryStore()
	s.dispatcher = &fakeDispatcher{replies: map[string]any{}, errs: map[string]error{}}
	s.surveys = survey.NewService(survey.NewMemoryStore(), nil, 0, log)
	s.service = NewService(s.store, s.surveys, s.dispatcher, metrics.NewForTest(), log)
}

func (s *ServiceSuite) TestGenerateDui() {
	ctx := context.Background()
	s.dispatcher.replies["getDuiStatistics"] = infraction.DuiStatistics{
		Year:  2024,
		Total: 3,
		Buckets: []infraction.DuiBucket{
			{Municipality: "Belgrade", Type: infraction.TypeDrunkDriving, Count: 2},
			{Municipality: "Novi Sad", Type: infraction.TypeDrunkDriving, Count: 1},
		},
	}

	r, err := s.service.GenerateDui(ctx, 2024)
	s.Require().NoError(err)
	s.Equal(TypeDui, r.Type)
	s.Require().Len(r.Indicators, 2)

	s.Run("one indicator per bucket, counts sum to the total", func() {
		sum := 0
		for _, ind := range r.Indicators {
			s.Equal(2024, ind.Year)
			s.Equal(r.ID, ind.ReportID)
			sum += ind.Count
		}
		s.Equal(3, sum)
	})

	s.Run("config records the input", func() {
		s.JSONEq(`{"year": 2024}`, r.Config)
	})

	s.Run("report is retrievable with its indicators", func() {
		got, err := s.service.Get(ctx, r.ID)
		s.Require().NoError(err)
		s.Len(got.Indicators, 2)
	})
}

func (s *ServiceSuite) TestFetchFailurePersistsNothing() {
	ctx := context.Background()
	s.dispatcher.errs["getDuiStatistics"] = faults.New(faults.KindInternal, "mup unreachable")

	_, err := s.service.GenerateDui(ctx, 2024)
	s.Require().Error(err)

	out, err := s.service.List(ctx)
	s.Require().NoError(err)
	s.Empty(out)
}

func (s *ServiceSuite) TestGenerateDocsIssued() {
	ctx := context.Background()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	s.dispatcher.replies["getDocsIssued"] = document.DocsIssued{
		From:   from,
		To:     to,
		Total:  5,
		ByType: map[string]int{"PASSPORT": 3, "ID_CARD": 2},
	}

	r, err := s.service.GenerateDocsIssued(ctx, from, to, "")
	s.Require().NoError(err)
	s.Equal(TypeDocsIssued, r.Type)
	s.Equal("Documents issued 2025-01-01 to 2026-01-01", r.Title)
	s.Require().Len(r.Indicators, 2)
	for _, ind := range r.Indicators {
		s.Require().NotNil(ind.PeriodFrom)
		s.True(ind.PeriodFrom.Equal(from))
		s.True(ind.PeriodTo.Equal(to))
	}
}

func (s *ServiceSuite) TestCustomTitles() {
	ctx := context.Background()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 6, 0)
	s.dispatcher.replies["getDocsIssued"] = document.DocsIssued{
		From: from, To: to, Total: 1, ByType: map[string]int{"PASSPORT": 1},
	}

	r, err := s.service.GenerateDocsIssued(ctx, from, to, "H1 document volume")
	s.Require().NoError(err)
	s.Equal("H1 document volume", r.Title)

	sv, err := s.surveys.CreateSurvey(ctx, survey.CreateSurveyDTO{
		Title:     "Census feedback",
		Questions: []string{"Was the form clear?"},
	})
	s.Require().NoError(err)

	sr, err := s.service.GenerateSurvey(ctx, sv.ID, "Quarterly satisfaction")
	s.Require().NoError(err)
	s.Equal("Quarterly satisfaction", sr.Title)

	dflt, err := s.service.GenerateSurvey(ctx, sv.ID, "")
	s.Require().NoError(err)
	s.Equal("Survey results: Census feedback", dflt.Title)
}

func (s *ServiceSuite) TestGenerateSurvey() {
	ctx := context.Background()
	sv, err := s.surveys.CreateSurvey(ctx, survey.CreateSurveyDTO{
		Title:     "Census feedback",
		Questions: []string{"Was the form clear?"},
	})
	s.Require().NoError(err)

	p, err := s.surveys.AddParticipant(ctx, sv.ID)
	s.Require().NoError(err)
	_, err = s.surveys.SubmitAnswers(ctx, survey.SubmitAnswersDTO{
		Token:   p.Token,
		Answers: map[string]string{sv.Questions[0].ID: "yes"},
	})
	s.Require().NoError(err)

	r, err := s.service.GenerateSurvey(ctx, sv.ID, "")
	s.Require().NoError(err)
	s.Equal(TypeSurvey, r.Type)
	s.Equal(sv.ID, r.SurveyID)
	s.Require().Len(r.Indicators, 1)
	s.Equal("Was the form clear?", r.Indicators[0].QuestionText)
	s.Equal("yes", r.Indicators[0].Value)
	s.Equal(1, r.Indicators[0].Count)

	s.Run("missing survey generates nothing", func() {
		_, err := s.service.GenerateSurvey(ctx, "ghost", "")
		s.True(faults.Is(err, faults.KindNotFound))
		out, err := s.service.List(ctx)
		s.Require().NoError(err)
		s.Len(out, 1)
	})
}

func (s *ServiceSuite) TestListNewestFirst() {
	ctx := context.Background()
	s.dispatcher.replies["getDuiStatistics"] = infraction.DuiStatistics{Year: 2023}

	times := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	i := 0
	s.service.now = func() time.Time { t := times[i]; i++; return t }

	_, err := s.service.GenerateDui(ctx, 2023)
	s.Require().NoError(err)
	_, err = s.service.GenerateDui(ctx, 2023)
	s.Require().NoError(err)

	out, err := s.service.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(out, 2)
	s.True(out[0].GeneratedAt.After(out[1].GeneratedAt))
}
