package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"egov/internal/audit"
	"egov/internal/platform/metrics"
	"egov/pkg/faults"

	"github.com/google/uuid"
)

// Service implements the request lifecycle: atomic creation of the aggregate,
// the status state machine, filtered listing, and sub-resource management.
type Service struct {
	store   Store
	auditor *audit.Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewService(store Store, auditor *audit.Publisher, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		auditor: auditor,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Create persists a new request together with any sub-resources supplied
// inline. The aggregate is written as one unit; if any part fails, nothing is
// persisted.
func (s *Service) Create(ctx context.Context, dto CreateDTO) (*Request, error) {
	if dto.CaseNumber == "" {
		return nil, faults.New(faults.KindBadRequest, "case number is required")
	}
	if dto.CitizenID == "" {
		return nil, faults.New(faults.KindBadRequest, "citizen id is required")
	}
	if !ValidType(dto.Type) {
		return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("unknown request type %q", dto.Type))
	}
	status := dto.Status
	if status == "" {
		status = StatusCreated
	}
	if !ValidStatus(status) {
		return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("unknown request status %q", dto.Status))
	}
	submitted := dto.SubmissionDate
	if submitted.IsZero() {
		submitted = s.now()
	}

	req := &Request{
		ID:             uuid.NewString(),
		CaseNumber:     dto.CaseNumber,
		Type:           dto.Type,
		Status:         status,
		SubmissionDate: submitted,
		CitizenID:      dto.CitizenID,
	}
	if dto.Appointment != nil {
		req.Appointment = &Appointment{
			ID:        uuid.NewString(),
			DateTime:  dto.Appointment.DateTime,
			Location:  dto.Appointment.Location,
			RequestID: req.ID,
		}
	}
	if dto.Payment != nil {
		req.Payment = &Payment{
			ID:              uuid.NewString(),
			Amount:          dto.Payment.Amount,
			Currency:        dto.Payment.Currency,
			ReferenceNumber: dto.Payment.ReferenceNumber,
			Status:          dto.Payment.Status,
			Timestamp:       dto.Payment.Timestamp,
			RequestID:       req.ID,
		}
	}
	if dto.Document != nil {
		req.Document = newDocument(req.ID, *dto.Document)
	}

	if err := s.store.Create(ctx, req); err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return nil, faults.Wrap(err, faults.KindConflict, "request with this case number already exists")
		case errors.Is(err, ErrSubDuplicate):
			return nil, faults.Wrap(err, faults.KindConflict, "request already has this sub-resource")
		}
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.metrics.RequestsCreated.Inc()
	s.log.Info("request created",
		"request_id", req.ID,
		"case_number", req.CaseNumber,
		"type", req.Type,
		"citizen_id", req.CitizenID,
	)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionRequestCreated,
		Subject:   req.CitizenID,
		RequestID: req.ID,
		Detail:    string(req.Type),
	})
	return req, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, faults.Wrap(err, faults.KindNotFound, "request not found")
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// List returns requests matching the filter, newest submission first.
func (s *Service) List(ctx context.Context, f Filter) ([]*Request, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("unknown request status %q", f.Status))
	}
	if f.Type != "" && !ValidType(f.Type) {
		return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("unknown request type %q", f.Type))
	}
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

// ListByCitizen is List constrained to one citizen.
func (s *Service) ListByCitizen(ctx context.Context, citizenID string) ([]*Request, error) {
	return s.List(ctx, Filter{CitizenID: citizenID})
}

// UpdateStatus advances the workflow. Transitions outside the linear policy
// are rejected; terminal states cannot be left.
func (s *Service) UpdateStatus(ctx context.Context, id string, dto UpdateStatusDTO) (*Request, error) {
	if !ValidStatus(dto.Status) {
		return nil, faults.New(faults.KindBadRequest, fmt.Sprintf("unknown request status %q", dto.Status))
	}

	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ValidTransition(req.Status, dto.Status) {
		return nil, faults.New(faults.KindBadRequest,
			fmt.Sprintf("cannot move request from %s to %s", req.Status, dto.Status))
	}

	from := req.Status
	req.Status = dto.Status
	req.AdminMessage = dto.AdminMessage
	req.ProcessedBy = dto.ProcessedBy
	now := s.now()
	req.ProcessedAt = &now

	if err := s.store.UpdateStatus(ctx, req); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, faults.Wrap(err, faults.KindNotFound, "request not found")
		}
		return nil, fmt.Errorf("update request status: %w", err)
	}

	s.log.Info("request status changed",
		"request_id", req.ID,
		"from", from,
		"to", req.Status,
		"processed_by", req.ProcessedBy,
	)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionStatusChanged,
		Actor:     dto.ProcessedBy,
		Subject:   req.CitizenID,
		RequestID: req.ID,
		Detail:    fmt.Sprintf("%s -> %s", from, req.Status),
	})
	return req, nil
}

// Remove deletes the request and everything attached to it.
func (s *Service) Remove(ctx context.Context, id string) error {
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return faults.Wrap(err, faults.KindNotFound, "request not found")
		}
		return fmt.Errorf("remove request: %w", err)
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionRequestRemoved,
		Subject:   req.CitizenID,
		RequestID: req.ID,
	})
	return nil
}

// ScheduleAppointment attaches a visit to an existing request. A request
// holds at most one appointment.
func (s *Service) ScheduleAppointment(ctx context.Context, requestID string, spec AppointmentSpec) (*Appointment, error) {
	if spec.Location == "" {
		return nil, faults.New(faults.KindBadRequest, "appointment location is required")
	}
	if spec.DateTime.IsZero() {
		return nil, faults.New(faults.KindBadRequest, "appointment date is required")
	}
	a := &Appointment{
		ID:        uuid.NewString(),
		DateTime:  spec.DateTime,
		Location:  spec.Location,
		RequestID: requestID,
	}
	if err := s.store.AddAppointment(ctx, a); err != nil {
		return nil, mapSubError(err, "appointment")
	}
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, mapSubError(err, "appointment")
	}
	return a, nil
}

func (s *Service) GetAppointmentByRequest(ctx context.Context, requestID string) (*Appointment, error) {
	a, err := s.store.GetAppointmentByRequest(ctx, requestID)
	if err != nil {
		return nil, mapSubError(err, "appointment")
	}
	return a, nil
}

func (s *Service) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	return s.store.ListAppointments(ctx)
}

func (s *Service) UpdateAppointment(ctx context.Context, id string, spec AppointmentSpec) (*Appointment, error) {
	a, err := s.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !spec.DateTime.IsZero() {
		a.DateTime = spec.DateTime
	}
	if spec.Location != "" {
		a.Location = spec.Location
	}
	if err := s.store.UpdateAppointment(ctx, a); err != nil {
		return nil, mapSubError(err, "appointment")
	}
	return a, nil
}

func (s *Service) RemoveAppointment(ctx context.Context, id string) error {
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		return mapSubError(err, "appointment")
	}
	return nil
}

// RecordPayment attaches the fee payment to an existing request. A request
// holds at most one payment.
func (s *Service) RecordPayment(ctx context.Context, requestID string, spec PaymentSpec) (*Payment, error) {
	if spec.Amount <= 0 {
		return nil, faults.New(faults.KindBadRequest, "payment amount must be positive")
	}
	if spec.Currency == "" {
		return nil, faults.New(faults.KindBadRequest, "payment currency is required")
	}
	ts := spec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	p := &Payment{
		ID:              uuid.NewString(),
		Amount:          spec.Amount,
		Currency:        spec.Currency,
		ReferenceNumber: spec.ReferenceNumber,
		Status:          spec.Status,
		Timestamp:       ts,
		RequestID:       requestID,
	}
	if err := s.store.AddPayment(ctx, p); err != nil {
		return nil, mapSubError(err, "payment")
	}
	return p, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, mapSubError(err, "payment")
	}
	return p, nil
}

func (s *Service) GetPaymentByRequest(ctx context.Context, requestID string) (*Payment, error) {
	p, err := s.store.GetPaymentByRequest(ctx, requestID)
	if err != nil {
		return nil, mapSubError(err, "payment")
	}
	return p, nil
}

func (s *Service) ListPayments(ctx context.Context) ([]*Payment, error) {
	return s.store.ListPayments(ctx)
}

func (s *Service) UpdatePayment(ctx context.Context, id string, spec PaymentSpec) (*Payment, error) {
	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if spec.Amount > 0 {
		p.Amount = spec.Amount
	}
	if spec.Currency != "" {
		p.Currency = spec.Currency
	}
	if spec.ReferenceNumber != "" {
		p.ReferenceNumber = spec.ReferenceNumber
	}
	if spec.Status != "" {
		p.Status = spec.Status
	}
	if !spec.Timestamp.IsZero() {
		p.Timestamp = spec.Timestamp
	}
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return nil, mapSubError(err, "payment")
	}
	return p, nil
}

func (s *Service) RemovePayment(ctx context.Context, id string) error {
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return mapSubError(err, "payment")
	}
	return nil
}

// AttachDocument records the issued document for an existing request. A
// request holds at most one document.
func (s *Service) AttachDocument(ctx context.Context, requestID string, spec DocumentSpec) (*Document, error) {
	if spec.Name == "" {
		return nil, faults.New(faults.KindBadRequest, "document name is required")
	}
	d := newDocument(requestID, spec)
	if err := s.store.AddDocument(ctx, d); err != nil {
		return nil, mapSubError(err, "document")
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionDocumentIssued,
		Subject:   requestID,
		RequestID: requestID,
		Detail:    d.Type,
	})
	return d, nil
}

func (s *Service) GetDocument(ctx context.Context, id string) (*Document, error) {
	d, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, mapSubError(err, "document")
	}
	return d, nil
}

func (s *Service) GetDocumentByRequest(ctx context.Context, requestID string) (*Document, error) {
	d, err := s.store.GetDocumentByRequest(ctx, requestID)
	if err != nil {
		return nil, mapSubError(err, "document")
	}
	return d, nil
}

func (s *Service) GetDocumentByFileKey(ctx context.Context, fileKey string) (*Document, error) {
	d, err := s.store.GetDocumentByFileKey(ctx, fileKey)
	if err != nil {
		return nil, mapSubError(err, "document")
	}
	return d, nil
}

// DetachDocumentFile clears the stored-file fields on the document row
// referencing fileKey. A missing row is not an error: the object may have
// been stored without ever getting attached to a request.
func (s *Service) DetachDocumentFile(ctx context.Context, fileKey string) error {
	d, err := s.store.GetDocumentByFileKey(ctx, fileKey)
	if err != nil {
		if errors.Is(err, ErrSubNotFound) {
			return nil
		}
		return fmt.Errorf("find document by file key: %w", err)
	}
	d.FileKey, d.FileName, d.MimeType = "", "", ""
	d.FileSize = 0
	if err := s.store.UpdateDocument(ctx, d); err != nil {
		return mapSubError(err, "document")
	}
	return nil
}

func (s *Service) ListDocuments(ctx context.Context) ([]*Document, error) {
	return s.store.ListDocuments(ctx)
}

func (s *Service) UpdateDocument(ctx context.Context, id string, spec DocumentSpec) (*Document, error) {
	d, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if spec.Name != "" {
		d.Name = spec.Name
	}
	if spec.Type != "" {
		d.Type = spec.Type
	}
	if !spec.IssuedDate.IsZero() {
		d.IssuedDate = spec.IssuedDate
	}
	if spec.FileKey != "" {
		d.FileKey = spec.FileKey
		d.FileName = spec.FileName
		d.FileSize = spec.FileSize
		d.MimeType = spec.MimeType
	}
	if err := s.store.UpdateDocument(ctx, d); err != nil {
		return nil, mapSubError(err, "document")
	}
	return d, nil
}

func (s *Service) RemoveDocument(ctx context.Context, id string) error {
	d, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return mapSubError(err, "document")
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionDocumentDeleted,
		Subject:   d.RequestID,
		RequestID: d.RequestID,
		Detail:    d.Type,
	})
	return nil
}

// CountDocumentsByType counts documents issued in [from, to) by type.
func (s *Service) CountDocumentsByType(ctx context.Context, from, to time.Time) (map[string]int, error) {
	out, err := s.store.CountDocumentsByType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	return out, nil
}

func newDocument(requestID string, spec DocumentSpec) *Document {
	return &Document{
		ID:         uuid.NewString(),
		Name:       spec.Name,
		Type:       spec.Type,
		IssuedDate: spec.IssuedDate,
		FileKey:    spec.FileKey,
		FileName:   spec.FileName,
		FileSize:   spec.FileSize,
		MimeType:   spec.MimeType,
		RequestID:  requestID,
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.log.Error("audit emit failed", "action", event.Action, "error", err)
	}
}

func mapSubError(err error, kind string) error {
	switch {
	case errors.Is(err, ErrSubNotFound):
		return faults.Wrap(err, faults.KindNotFound, kind+" not found")
	case errors.Is(err, ErrSubDuplicate):
		return faults.Wrap(err, faults.KindConflict, "request already has a "+kind)
	case errors.Is(err, ErrParentMissing):
		return faults.Wrap(err, faults.KindNotFound, "request not found")
	}
	return fmt.Errorf("%s: %w", kind, err)
}
