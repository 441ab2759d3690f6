package infraction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	txcontext "egov/pkg/platform/tx"
)

// PostgresStore persists infractions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const infractionColumns = `id, date_time, municipality, description, penalty_points, fine, type`

func (s *PostgresStore) Create(ctx context.Context, in *Infraction) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO infractions (`+infractionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, in.ID, in.DateTime, in.Municipality, in.Description, in.PenaltyPoints, in.Fine, string(in.Type))
	if err != nil {
		return fmt.Errorf("insert infraction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Infraction, error) {
	var in Infraction
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+infractionColumns+` FROM infractions WHERE id = $1
	`, id).Scan(&in.ID, &in.DateTime, &in.Municipality, &in.Description, &in.PenaltyPoints, &in.Fine, &in.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get infraction: %w", err)
	}
	return &in, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Infraction, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+infractionColumns+` FROM infractions ORDER BY date_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list infractions: %w", err)
	}
	defer rows.Close()

	var out []*Infraction
	for rows.Next() {
		var in Infraction
		if err := rows.Scan(&in.ID, &in.DateTime, &in.Municipality, &in.Description, &in.PenaltyPoints, &in.Fine, &in.Type); err != nil {
			return nil, fmt.Errorf("scan infraction: %w", err)
		}
		out = append(out, &in)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, in *Infraction) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE infractions
		SET date_time = $2, municipality = $3, description = $4,
		    penalty_points = $5, fine = $6, type = $7
		WHERE id = $1
	`, in.ID, in.DateTime, in.Municipality, in.Description, in.PenaltyPoints, in.Fine, string(in.Type))
	if err != nil {
		return fmt.Errorf("update infraction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM infractions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete infraction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AggregateByYear(ctx context.Context, year int) ([]DuiBucket, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT municipality, type, COUNT(*), COALESCE(SUM(fine), 0), COALESCE(SUM(penalty_points), 0)
		FROM infractions
		WHERE EXTRACT(YEAR FROM date_time) = $1
		GROUP BY municipality, type
		ORDER BY municipality, type
	`, year)
	if err != nil {
		return nil, fmt.Errorf("aggregate infractions: %w", err)
	}
	defer rows.Close()

	var out []DuiBucket
	for rows.Next() {
		var b DuiBucket
		if err := rows.Scan(&b.Municipality, &b.Type, &b.Count, &b.TotalFine, &b.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
