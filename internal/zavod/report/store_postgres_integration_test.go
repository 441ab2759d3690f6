//go:build integration

package report

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"egov/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T(), "zavod.sql")
	pool, err := pgxpool.New(context.Background(), pg.DSN)
	s.Require().NoError(err)
	s.pool = pool
	s.store = NewPostgres(pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE reports, indicators`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestSaveAndGetWithIndicators() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	from := now.AddDate(0, -1, 0)

	r := &Report{
		ID:          "rep-1",
		Title:       "Documents issued",
		Type:        TypeDocsIssued,
		Config:      `{"from":"2025-02-01T00:00:00Z","to":"2025-03-01T00:00:00Z"}`,
		GeneratedAt: now,
		Indicators: []Indicator{
			{ID: "ind-1", ReportID: "rep-1", DocumentType: "PASSPORT", PeriodFrom: &from, PeriodTo: &now, Count: 12},
			{ID: "ind-2", ReportID: "rep-1", DocumentType: "ID_CARD", PeriodFrom: &from, PeriodTo: &now, Count: 4},
		},
	}
	s.Require().NoError(s.store.Save(ctx, r))

	got, err := s.store.Get(ctx, "rep-1")
	s.Require().NoError(err)
	s.Equal(TypeDocsIssued, got.Type)
	s.JSONEq(r.Config, got.Config)
	s.Require().Len(got.Indicators, 2)
	s.Equal(now, got.GeneratedAt)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), "absent")
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	older := &Report{ID: "rep-old", Title: "DUI 2024", Type: TypeDui, Config: `{"year":2024}`, GeneratedAt: base.Add(-time.Hour)}
	newer := &Report{ID: "rep-new", Title: "DUI 2025", Type: TypeDui, Config: `{"year":2025}`, GeneratedAt: base}
	s.Require().NoError(s.store.Save(ctx, older))
	s.Require().NoError(s.store.Save(ctx, newer))

	list, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("rep-new", list[0].ID)
	s.Equal("rep-old", list[1].ID)
}

func (s *PostgresStoreSuite) TestSurveyReportRoundTrip() {
	ctx := context.Background()
	r := &Report{
		ID:          "rep-survey",
		Title:       "Survey results",
		Type:        TypeSurvey,
		Config:      `{"surveyId":"survey-1"}`,
		GeneratedAt: time.Now().UTC().Truncate(time.Microsecond),
		SurveyID:    "survey-1",
		Indicators: []Indicator{
			{ID: "ind-1", ReportID: "rep-survey", QuestionText: "Rate us", Value: "5", Count: 7},
		},
	}
	s.Require().NoError(s.store.Save(ctx, r))

	got, err := s.store.Get(ctx, "rep-survey")
	s.Require().NoError(err)
	s.Equal("survey-1", got.SurveyID)
	s.Require().Len(got.Indicators, 1)
	s.Equal("5", got.Indicators[0].Value)
	s.Nil(got.Indicators[0].PeriodFrom)
}
