package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txcontext "egov/pkg/platform/tx"

	"github.com/lib/pq"
)

// PostgresStore persists the request aggregate in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres constructs a PostgreSQL-backed request store.
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

// Create inserts the request row and every attached sub-resource. When the
// caller has not already opened a transaction, one is opened here so a
// failing sub-resource insert rolls back the request row too.
func (s *PostgresStore) Create(ctx context.Context, req *Request) error {
	if _, ok := txcontext.From(ctx); ok {
		return s.create(ctx, req)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	if err := s.create(txcontext.WithTx(ctx, tx), req); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create request: %w", err)
	}
	return nil
}

func (s *PostgresStore) create(ctx context.Context, req *Request) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO requests (
			id, case_number, type, status, submission_date, citizen_id,
			admin_message, processed_at, processed_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		req.ID,
		req.CaseNumber,
		string(req.Type),
		string(req.Status),
		req.SubmissionDate,
		req.CitizenID,
		nullString(req.AdminMessage),
		req.ProcessedAt,
		nullString(req.ProcessedBy),
	)
	if err != nil {
		return mapPQ(err, ErrDuplicate)
	}

	if req.Appointment != nil {
		if err := s.AddAppointment(ctx, req.Appointment); err != nil {
			return err
		}
	}
	if req.Payment != nil {
		if err := s.AddPayment(ctx, req.Payment); err != nil {
			return err
		}
	}
	if req.Document != nil {
		if err := s.AddDocument(ctx, req.Document); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Request, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, case_number, type, status, submission_date, citizen_id,
		       admin_message, processed_at, processed_by
		FROM requests
		WHERE id = $1
	`, id)

	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	if err := s.attachSubResources(ctx, []*Request{req}); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*Request, error) {
	// Zero-valued filter fields disable the corresponding predicate.
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, case_number, type, status, submission_date, citizen_id,
		       admin_message, processed_at, processed_by
		FROM requests
		WHERE ($1 = '' OR citizen_id = $1)
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR type = $3)
		ORDER BY submission_date DESC
	`, f.CitizenID, string(f.Status), string(f.Type))
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	if err := s.attachSubResources(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, req *Request) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE requests
		SET status = $2, admin_message = $3, processed_at = $4, processed_by = $5
		WHERE id = $1
	`,
		req.ID,
		string(req.Status),
		nullString(req.AdminMessage),
		req.ProcessedAt,
		nullString(req.ProcessedBy),
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	return requireRow(res, ErrNotFound)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	// Sub-resource rows go with the request via ON DELETE CASCADE.
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return requireRow(res, ErrNotFound)
}

func (s *PostgresStore) AddAppointment(ctx context.Context, a *Appointment) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO appointments (id, date_time, location, request_id)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.DateTime, a.Location, a.RequestID)
	if err != nil {
		return mapPQ(err, ErrSubDuplicate)
	}
	return nil
}

func (s *PostgresStore) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	return s.queryAppointment(ctx, `SELECT id, date_time, location, request_id FROM appointments WHERE id = $1`, id)
}

func (s *PostgresStore) GetAppointmentByRequest(ctx context.Context, requestID string) (*Appointment, error) {
	return s.queryAppointment(ctx, `SELECT id, date_time, location, request_id FROM appointments WHERE request_id = $1`, requestID)
}

func (s *PostgresStore) queryAppointment(ctx context.Context, query, arg string) (*Appointment, error) {
	var a Appointment
	err := s.execer(ctx).QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.DateTime, &a.Location, &a.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, date_time, location, request_id
		FROM appointments
		ORDER BY date_time
	`)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.DateTime, &a.Location, &a.RequestID); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateAppointment(ctx context.Context, a *Appointment) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE appointments SET date_time = $2, location = $3 WHERE id = $1
	`, a.ID, a.DateTime, a.Location)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return requireRow(res, ErrSubNotFound)
}

func (s *PostgresStore) DeleteAppointment(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return requireRow(res, ErrSubNotFound)
}

func (s *PostgresStore) AddPayment(ctx context.Context, p *Payment) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO payments (id, amount, currency, reference_number, status, ts, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Amount, p.Currency, p.ReferenceNumber, p.Status, p.Timestamp, p.RequestID)
	if err != nil {
		return mapPQ(err, ErrSubDuplicate)
	}
	return nil
}

func (s *PostgresStore) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return s.queryPayment(ctx, `
		SELECT id, amount, currency, reference_number, status, ts, request_id
		FROM payments WHERE id = $1`, id)
}

func (s *PostgresStore) GetPaymentByRequest(ctx context.Context, requestID string) (*Payment, error) {
	return s.queryPayment(ctx, `
		SELECT id, amount, currency, reference_number, status, ts, request_id
		FROM payments WHERE request_id = $1`, requestID)
}

func (s *PostgresStore) queryPayment(ctx context.Context, query, arg string) (*Payment, error) {
	var p Payment
	err := s.execer(ctx).QueryRowContext(ctx, query, arg).
		Scan(&p.ID, &p.Amount, &p.Currency, &p.ReferenceNumber, &p.Status, &p.Timestamp, &p.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPayments(ctx context.Context) ([]*Payment, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, amount, currency, reference_number, status, ts, request_id
		FROM payments
		ORDER BY ts
	`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Amount, &p.Currency, &p.ReferenceNumber, &p.Status, &p.Timestamp, &p.RequestID); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdatePayment(ctx context.Context, p *Payment) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE payments
		SET amount = $2, currency = $3, reference_number = $4, status = $5, ts = $6
		WHERE id = $1
	`, p.ID, p.Amount, p.Currency, p.ReferenceNumber, p.Status, p.Timestamp)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return requireRow(res, ErrSubNotFound)
}

func (s *PostgresStore) DeletePayment(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireRow(res, ErrSubNotFound)
}

func (s *PostgresStore) AddDocument(ctx context.Context, d *Document) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO documents (
			id, name, type, issued_date, file_key, file_name, file_size, mime_type, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, d.ID, d.Name, d.Type, d.IssuedDate,
		nullString(d.FileKey), nullString(d.FileName), d.FileSize, nullString(d.MimeType), d.RequestID)
	if err != nil {
		return mapPQ(err, ErrSubDuplicate)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	return s.queryDocument(ctx, `
		SELECT id, name, type, issued_date, file_key, file_name, file_size, mime_type, request_id
		FROM documents WHERE id = $1`, id)
}

func (s *PostgresStore) GetDocumentByRequest(ctx context.Context, requestID string) (*Document, error) {
	return s.queryDocument(ctx, `
		SELECT id, name, type, issued_date, file_key, file_name, file_size, mime_type, request_id
		FROM documents WHERE request_id = $1`, requestID)
}

func (s *PostgresStore) GetDocumentByFileKey(ctx context.Context, fileKey string) (*Document, error) {
	return s.queryDocument(ctx, `
		SELECT id, name, type, issued_date, file_key, file_name, file_size, mime_type, request_id
		FROM documents WHERE file_key = $1`, fileKey)
}

func (s *PostgresStore) queryDocument(ctx context.Context, query, arg string) (*Document, error) {
	d, err := scanDocument(s.execer(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, name, type, issued_date, file_key, file_name, file_size, mime_type, request_id
		FROM documents
		ORDER BY issued_date
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, d *Document) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE documents
		SET name = $2, type = $3, issued_date = $4,
		    file_key = $5, file_name = $6, file_size = $7, mime_type = $8
		WHERE id = $1
	`, d.ID, d.Name, d.Type, d.IssuedDate,
		nullString(d.FileKey), nullString(d.FileName), d.FileSize, nullString(d.MimeType))
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRow(res, ErrSubNotFound)
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res, ErrSubNotFound)
}

func (s *PostgresStore) CountDocumentsByType(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT type, COUNT(*)
		FROM documents
		WHERE issued_date >= $1 AND issued_date < $2
		GROUP BY type
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan document count: %w", err)
		}
		out[typ] = n
	}
	return out, rows.Err()
}

// attachSubResources hydrates the aggregate for already-scanned request rows
// with three batched queries instead of per-request lookups.
func (s *PostgresStore) attachSubResources(ctx context.Context, reqs []*Request) error {
	if len(reqs) == 0 {
		return nil
	}
	byID := make(map[string]*Request, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, date_time, location, request_id
		FROM appointments WHERE request_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load appointments: %w", err)
	}
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.DateTime, &a.Location, &a.RequestID); err != nil {
			rows.Close()
			return fmt.Errorf("scan appointment: %w", err)
		}
		byID[a.RequestID].Appointment = &a
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate appointments: %w", err)
	}

	rows, err = s.execer(ctx).QueryContext(ctx, `
		SELECT id, amount, currency, reference_number, status, ts, request_id
		FROM payments WHERE request_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Amount, &p.Currency, &p.ReferenceNumber, &p.Status, &p.Timestamp, &p.RequestID); err != nil {
			rows.Close()
			return fmt.Errorf("scan payment: %w", err)
		}
		byID[p.RequestID].Payment = &p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate payments: %w", err)
	}

	rows, err = s.execer(ctx).QueryContext(ctx, `
		SELECT id, name, type, issued_date, file_key, file_name, file_size, mime_type, request_id
		FROM documents WHERE request_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan document: %w", err)
		}
		byID[d.RequestID].Document = d
	}
	rows.Close()
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var (
		req          Request
		adminMessage sql.NullString
		processedBy  sql.NullString
		processedAt  sql.NullTime
	)
	err := row.Scan(
		&req.ID,
		&req.CaseNumber,
		&req.Type,
		&req.Status,
		&req.SubmissionDate,
		&req.CitizenID,
		&adminMessage,
		&processedAt,
		&processedBy,
	)
	if err != nil {
		return nil, err
	}
	req.AdminMessage = adminMessage.String
	req.ProcessedBy = processedBy.String
	if processedAt.Valid {
		t := processedAt.Time
		req.ProcessedAt = &t
	}
	return &req, nil
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		d        Document
		fileKey  sql.NullString
		fileName sql.NullString
		mimeType sql.NullString
	)
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.IssuedDate, &fileKey, &fileName, &d.FileSize, &mimeType, &d.RequestID)
	if err != nil {
		return nil, err
	}
	d.FileKey = fileKey.String
	d.FileName = fileName.String
	d.MimeType = mimeType.String
	return &d, nil
}

// mapPQ translates PostgreSQL constraint violations onto store sentinels.
func mapPQ(err error, onUnique error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return onUnique
		case "23503":
			return ErrParentMissing
		}
	}
	return fmt.Errorf("exec: %w", err)
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
