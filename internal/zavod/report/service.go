package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"egov/internal/mup/document"
	"egov/internal/mup/infraction"
	"egov/internal/platform/metrics"
	"egov/internal/zavod/survey"
	"egov/pkg/faults"

	"github.com/google/uuid"
)

// Dispatcher sends one RPC command and decodes the reply. Satisfied by
// rpc.Client.
type Dispatcher interface {
	Send(ctx context.Context, service, command string, payload, reply any) error
}

// MupService is the logical name the report service dials for registry data.
const MupService = "mup-service"

// Service is the report aggregator. Source data is fetched in full before
// anything is written; a fetch failure leaves no report behind.
type Service struct {
	store   Store
	surveys *survey.Service
	rpc     Dispatcher
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewService(store Store, surveys *survey.Service, rpc Dispatcher, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		surveys: surveys,
		rpc:     rpc,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// GenerateDui fetches the year's infraction aggregate from the ministry and
// snapshots it as one indicator row per (municipality, type) bucket.
func (s *Service) GenerateDui(ctx context.Context, year int) (*Report, error) {
	var stats infraction.DuiStatistics
	payload := map[string]int{"year": year}
	if err := s.rpc.Send(ctx, MupService, "getDuiStatistics", payload, &stats); err != nil {
		return nil, err
	}

	r := s.newReport(TypeDui, fmt.Sprintf("Drunk driving statistics %d", year), payload)
	for _, b := range stats.Buckets {
		r.Indicators = append(r.Indicators, Indicator{
			ID:             uuid.NewString(),
			ReportID:       r.ID,
			Year:           year,
			Municipality:   b.Municipality,
			InfractionType: string(b.Type),
			Count:          b.Count,
		})
	}
	return s.persist(ctx, r)
}

// GenerateDocsIssued fetches the issued-document counts for [from, to) and
// snapshots one indicator row per document type. An empty title falls back
// to one derived from the period.
func (s *Service) GenerateDocsIssued(ctx context.Context, from, to time.Time, title string) (*Report, error) {
	var issued document.DocsIssued
	payload := map[string]time.Time{"from": from, "to": to}
	if err := s.rpc.Send(ctx, MupService, "getDocsIssued", payload, &issued); err != nil {
		return nil, err
	}

	if title == "" {
		title = fmt.Sprintf("Documents issued %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	r := s.newReport(TypeDocsIssued, title, payload)
	for docType, n := range issued.ByType {
		f, t := from, to
		r.Indicators = append(r.Indicators, Indicator{
			ID:           uuid.NewString(),
			ReportID:     r.ID,
			DocumentType: docType,
			PeriodFrom:   &f,
			PeriodTo:     &t,
			Count:        n,
		})
	}
	return s.persist(ctx, r)
}

// GenerateSurvey snapshots the survey's response statistics, one indicator
// row per question carrying its dominant answer and response count. An
// empty title falls back to one derived from the survey's own.
func (s *Service) GenerateSurvey(ctx context.Context, surveyID, title string) (*Report, error) {
	stats, err := s.surveys.Statistics(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = "Survey results: " + stats.Title
	}
	r := s.newReport(TypeSurvey, title, map[string]string{"surveyId": surveyID})
	r.SurveyID = surveyID
	for _, q := range stats.Questions {
		r.Indicators = append(r.Indicators, Indicator{
			ID:           uuid.NewString(),
			ReportID:     r.ID,
			QuestionText: q.Text,
			Value:        q.MostFrequent,
			Count:        q.Responses,
		})
	}
	return s.persist(ctx, r)
}

func (s *Service) Get(ctx context.Context, id string) (*Report, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, faults.Wrap(err, faults.KindNotFound, "report not found")
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]*Report, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

func (s *Service) newReport(t Type, title string, config any) *Report {
	raw, err := json.Marshal(config)
	if err != nil {
		raw = []byte("{}")
	}
	return &Report{
		ID:          uuid.NewString(),
		Title:       title,
		Type:        t,
		Config:      string(raw),
		GeneratedAt: s.now(),
	}
}

func (s *Service) persist(ctx context.Context, r *Report) (*Report, error) {
	if err := s.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	s.metrics.ReportsCreated.WithLabelValues(string(r.Type)).Inc()
	s.log.Info("report generated", "report_id", r.ID, "type", r.Type, "indicators", len(r.Indicators))
	return r, nil
}
