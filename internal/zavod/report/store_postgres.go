package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists reports in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save writes the report row and every indicator in one transaction.
func (s *PostgresStore) Save(ctx context.Context, r *Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save report: %w", err)
	}
	defer tx.Rollback(ctx)

	var surveyID *string
	if r.SurveyID != "" {
		surveyID = &r.SurveyID
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO reports (id, title, type, config, generated_at, survey_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.Title, string(r.Type), r.Config, r.GeneratedAt, surveyID)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	for _, ind := range r.Indicators {
		_, err = tx.Exec(ctx, `
			INSERT INTO indicators (
				id, report_id, year, municipality, infraction_type,
				document_type, period_from, period_to, question_text, value, count
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, ind.ID, ind.ReportID, ind.Year, ind.Municipality, ind.InfractionType,
			ind.DocumentType, ind.PeriodFrom, ind.PeriodTo, ind.QuestionText, ind.Value, ind.Count)
		if err != nil {
			return fmt.Errorf("insert indicator: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Report, error) {
	var (
		r        Report
		surveyID *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, type, config, generated_at, survey_id
		FROM reports WHERE id = $1
	`, id).Scan(&r.ID, &r.Title, &r.Type, &r.Config, &r.GeneratedAt, &surveyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	if surveyID != nil {
		r.SurveyID = *surveyID
	}
	if err := s.loadIndicators(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, type, config, generated_at, survey_id
		FROM reports
		ORDER BY generated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		var (
			r        Report
			surveyID *string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Type, &r.Config, &r.GeneratedAt, &surveyID); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if surveyID != nil {
			r.SurveyID = *surveyID
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	for _, r := range out {
		if err := s.loadIndicators(ctx, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) loadIndicators(ctx context.Context, r *Report) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, report_id, year, municipality, infraction_type,
		       document_type, period_from, period_to, question_text, value, count
		FROM indicators
		WHERE report_id = $1
		ORDER BY municipality, infraction_type, document_type, question_text
	`, r.ID)
	if err != nil {
		return fmt.Errorf("load indicators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ind Indicator
		if err := rows.Scan(
			&ind.ID, &ind.ReportID, &ind.Year, &ind.Municipality, &ind.InfractionType,
			&ind.DocumentType, &ind.PeriodFrom, &ind.PeriodTo, &ind.QuestionText, &ind.Value, &ind.Count,
		); err != nil {
			return fmt.Errorf("scan indicator: %w", err)
		}
		r.Indicators = append(r.Indicators, ind)
	}
	return rows.Err()
}
