package citizen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	jwttoken "egov/internal/jwt_token"
	txcontext "egov/pkg/platform/tx"

	"github.com/lib/pq"
)

// PostgresStore persists citizens in PostgreSQL.
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

const citizenColumns = `id, jmbg, first_name, last_name, email, phone, role, created_at, password_hash`

func (s *PostgresStore) Create(ctx context.Context, c *Citizen) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO citizens (`+citizenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.JMBG, c.FirstName, c.LastName, c.Email, c.Phone, string(c.Role), c.CreatedAt, c.PasswordHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert citizen: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Citizen, error) {
	return s.queryOne(ctx, `SELECT `+citizenColumns+` FROM citizens WHERE id = $1`, id)
}

func (s *PostgresStore) GetByJMBG(ctx context.Context, jmbg string) (*Citizen, error) {
	return s.queryOne(ctx, `SELECT `+citizenColumns+` FROM citizens WHERE jmbg = $1`, jmbg)
}

func (s *PostgresStore) queryOne(ctx context.Context, query, arg string) (*Citizen, error) {
	var (
		c     Citizen
		phone sql.NullString
		role  string
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, arg).
		Scan(&c.ID, &c.JMBG, &c.FirstName, &c.LastName, &c.Email, &phone, &role, &c.CreatedAt, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get citizen: %w", err)
	}
	c.Phone = phone.String
	c.Role = jwttoken.Role(role)
	return &c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Citizen, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT `+citizenColumns+` FROM citizens ORDER BY jmbg`)
	if err != nil {
		return nil, fmt.Errorf("list citizens: %w", err)
	}
	defer rows.Close()

	var out []*Citizen
	for rows.Next() {
		var (
			c     Citizen
			phone sql.NullString
			role  string
		)
		if err := rows.Scan(&c.ID, &c.JMBG, &c.FirstName, &c.LastName, &c.Email, &phone, &role, &c.CreatedAt, &c.PasswordHash); err != nil {
			return nil, fmt.Errorf("scan citizen: %w", err)
		}
		c.Phone = phone.String
		c.Role = jwttoken.Role(role)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, c *Citizen) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE citizens
		SET first_name = $2, last_name = $3, email = $4, phone = $5
		WHERE id = $1
	`, c.ID, c.FirstName, c.LastName, c.Email, c.Phone)
	if err != nil {
		return fmt.Errorf("update citizen: %w", err)
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
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM citizens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete citizen: %w", err)
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
