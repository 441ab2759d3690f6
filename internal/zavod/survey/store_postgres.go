package survey

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists surveys in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateSurvey(ctx context.Context, sv *Survey) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create survey: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO surveys (id, title, description, created_at)
		VALUES ($1, $2, $3, $4)
	`, sv.ID, sv.Title, sv.Description, sv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	for _, q := range sv.Questions {
		_, err = tx.Exec(ctx, `
			INSERT INTO questions (id, survey_id, text, position)
			VALUES ($1, $2, $3, $4)
		`, q.ID, q.SurveyID, q.Text, q.Position)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetSurvey(ctx context.Context, id string) (*Survey, error) {
	var sv Survey
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, description, created_at FROM surveys WHERE id = $1
	`, id).Scan(&sv.ID, &sv.Title, &sv.Description, &sv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get survey: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, survey_id, text, position
		FROM questions
		WHERE survey_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Text, &q.Position); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		sv.Questions = append(sv.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return &sv, nil
}

func (s *PostgresStore) ListSurveys(ctx context.Context) ([]*Survey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, created_at
		FROM surveys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	var out []*Survey
	for rows.Next() {
		var sv Survey
		if err := rows.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, &sv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddQuestion(ctx context.Context, q *Question) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO questions (id, survey_id, text, position)
		SELECT $1, $2, $3, COALESCE(MAX(position), 0) + 1
		FROM questions WHERE survey_id = $2
	`, q.ID, q.SurveyID, q.Text)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddParticipant(ctx context.Context, p *Participant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO participants (id, survey_id, token, created_at, answered)
		VALUES ($1, $2, $3, $4, false)
	`, p.ID, p.SurveyID, p.Token, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetParticipantByToken(ctx context.Context, token string) (*Participant, error) {
	var p Participant
	err := s.pool.QueryRow(ctx, `
		SELECT id, survey_id, token, created_at, answered
		FROM participants WHERE token = $1
	`, token).Scan(&p.ID, &p.SurveyID, &p.Token, &p.CreatedAt, &p.Answered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CountParticipants(ctx context.Context, surveyID string) (int, int, error) {
	var total, responded int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE answered)
		FROM participants WHERE survey_id = $1
	`, surveyID).Scan(&total, &responded)
	if err != nil {
		return 0, 0, fmt.Errorf("count participants: %w", err)
	}
	return total, responded, nil
}

// SaveAnswers writes the response set and flips the answered flag in one
// transaction. The guarded UPDATE makes double submission race-safe.
func (s *PostgresStore) SaveAnswers(ctx context.Context, participantID string, answers []Answer) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save answers: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE participants SET answered = true
		WHERE id = $1 AND NOT answered
	`, participantID)
	if err != nil {
		return fmt.Errorf("mark participant answered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM participants WHERE id = $1)`, participantID).Scan(&exists); err != nil {
			return fmt.Errorf("check participant: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyAnswered
	}

	for _, a := range answers {
		_, err = tx.Exec(ctx, `
			INSERT INTO answers (id, participant_id, question_id, value)
			VALUES ($1, $2, $3, $4)
		`, a.ID, a.ParticipantID, a.QuestionID, a.Value)
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListAnswersBySurvey(ctx context.Context, surveyID string) ([]Answer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.participant_id, a.question_id, a.value
		FROM answers a
		JOIN participants p ON p.id = a.participant_id
		WHERE p.survey_id = $1
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.QuestionID, &a.Value); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
