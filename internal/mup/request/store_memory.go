package request

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu           sync.RWMutex
	requests     map[string]*Request
	byCase       map[string]string
	appointments map[string]*Appointment
	payments     map[string]*Payment
	documents    map[string]*Document
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:     make(map[string]*Request),
		byCase:       make(map[string]string),
		appointments: make(map[string]*Appointment),
		payments:     make(map[string]*Payment),
		documents:    make(map[string]*Document),
	}
}

func (s *MemoryStore) Create(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byCase[req.CaseNumber]; ok {
		return ErrDuplicate
	}

	// Validate the whole aggregate before touching any map so a failing
	// sub-resource leaves no request row behind.
	if req.Appointment != nil {
		if _, ok := s.appointments[req.Appointment.ID]; ok {
			return ErrSubDuplicate
		}
	}
	if req.Payment != nil {
		if _, ok := s.payments[req.Payment.ID]; ok {
			return ErrSubDuplicate
		}
	}
	if req.Document != nil {
		if _, ok := s.documents[req.Document.ID]; ok {
			return ErrSubDuplicate
		}
	}

	stored := cloneRequest(req)
	s.requests[req.ID] = stored
	s.byCase[req.CaseNumber] = req.ID
	if stored.Appointment != nil {
		s.appointments[stored.Appointment.ID] = stored.Appointment
	}
	if stored.Payment != nil {
		s.payments[stored.Payment.ID] = stored.Payment
	}
	if stored.Document != nil {
		s.documents[stored.Document.ID] = stored.Document
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Request, 0, len(s.requests))
	for _, req := range s.requests {
		if f.CitizenID != "" && req.CitizenID != f.CitizenID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.Type != "" && req.Type != f.Type {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmissionDate.After(out[j].SubmissionDate)
	})
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.requests[req.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Status = req.Status
	cur.AdminMessage = req.AdminMessage
	cur.ProcessedBy = req.ProcessedBy
	if req.ProcessedAt != nil {
		t := *req.ProcessedAt
		cur.ProcessedAt = &t
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	if req.Appointment != nil {
		delete(s.appointments, req.Appointment.ID)
	}
	if req.Payment != nil {
		delete(s.payments, req.Payment.ID)
	}
	if req.Document != nil {
		delete(s.documents, req.Document.ID)
	}
	delete(s.byCase, req.CaseNumber)
	delete(s.requests, id)
	return nil
}

func (s *MemoryStore) AddAppointment(_ context.Context, a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[a.RequestID]
	if !ok {
		return ErrParentMissing
	}
	if req.Appointment != nil {
		return ErrSubDuplicate
	}
	stored := *a
	req.Appointment = &stored
	s.appointments[a.ID] = &stored
	return nil
}

func (s *MemoryStore) GetAppointment(_ context.Context, id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrSubNotFound
	}
	out := *a
	return &out, nil
}

func (s *MemoryStore) GetAppointmentByRequest(_ context.Context, requestID string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[requestID]
	if !ok || req.Appointment == nil {
		return nil, ErrSubNotFound
	}
	out := *req.Appointment
	return &out, nil
}

func (s *MemoryStore) ListAppointments(_ context.Context) ([]*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (s *MemoryStore) UpdateAppointment(_ context.Context, a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.appointments[a.ID]
	if !ok {
		return ErrSubNotFound
	}
	cur.DateTime = a.DateTime
	cur.Location = a.Location
	return nil
}

func (s *MemoryStore) DeleteAppointment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return ErrSubNotFound
	}
	if req, ok := s.requests[a.RequestID]; ok {
		req.Appointment = nil
	}
	delete(s.appointments, id)
	return nil
}

func (s *MemoryStore) AddPayment(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[p.RequestID]
	if !ok {
		return ErrParentMissing
	}
	if req.Payment != nil {
		return ErrSubDuplicate
	}
	stored := *p
	req.Payment = &stored
	s.payments[p.ID] = &stored
	return nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id string) (*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, ErrSubNotFound
	}
	out := *p
	return &out, nil
}

func (s *MemoryStore) GetPaymentByRequest(_ context.Context, requestID string) (*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[requestID]
	if !ok || req.Payment == nil {
		return nil, ErrSubNotFound
	}
	out := *req.Payment
	return &out, nil
}

func (s *MemoryStore) ListPayments(_ context.Context) ([]*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Payment, 0, len(s.payments))
	for _, p := range s.payments {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) UpdatePayment(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.payments[p.ID]
	if !ok {
		return ErrSubNotFound
	}
	cur.Amount = p.Amount
	cur.Currency = p.Currency
	cur.ReferenceNumber = p.ReferenceNumber
	cur.Status = p.Status
	cur.Timestamp = p.Timestamp
	return nil
}

func (s *MemoryStore) DeletePayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return ErrSubNotFound
	}
	if req, ok := s.requests[p.RequestID]; ok {
		req.Payment = nil
	}
	delete(s.payments, id)
	return nil
}

func (s *MemoryStore) AddDocument(_ context.Context, d *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[d.RequestID]
	if !ok {
		return ErrParentMissing
	}
	if req.Document != nil {
		return ErrSubDuplicate
	}
	stored := *d
	req.Document = &stored
	s.documents[d.ID] = &stored
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return nil, ErrSubNotFound
	}
	out := *d
	return &out, nil
}

func (s *MemoryStore) GetDocumentByRequest(_ context.Context, requestID string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[requestID]
	if !ok || req.Document == nil {
		return nil, ErrSubNotFound
	}
	out := *req.Document
	return &out, nil
}

func (s *MemoryStore) GetDocumentByFileKey(_ context.Context, fileKey string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fileKey == "" {
		return nil, ErrSubNotFound
	}
	for _, d := range s.documents {
		if d.FileKey == fileKey {
			out := *d
			return &out, nil
		}
	}
	return nil, ErrSubNotFound
}

func (s *MemoryStore) ListDocuments(_ context.Context) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Document, 0, len(s.documents))
	for _, d := range s.documents {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedDate.Before(out[j].IssuedDate) })
	return out, nil
}

func (s *MemoryStore) UpdateDocument(_ context.Context, d *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.documents[d.ID]
	if !ok {
		return ErrSubNotFound
	}
	cur.Name = d.Name
	cur.Type = d.Type
	cur.IssuedDate = d.IssuedDate
	cur.FileKey = d.FileKey
	cur.FileName = d.FileName
	cur.FileSize = d.FileSize
	cur.MimeType = d.MimeType
	return nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.documents[id]
	if !ok {
		return ErrSubNotFound
	}
	if req, ok := s.requests[d.RequestID]; ok {
		req.Document = nil
	}
	delete(s.documents, id)
	return nil
}

func (s *MemoryStore) CountDocumentsByType(_ context.Context, from, to time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int)
	for _, d := range s.documents {
		if d.IssuedDate.Before(from) || !d.IssuedDate.Before(to) {
			continue
		}
		out[d.Type]++
	}
	return out, nil
}

func cloneRequest(r *Request) *Request {
	out := *r
	if r.ProcessedAt != nil {
		t := *r.ProcessedAt
		out.ProcessedAt = &t
	}
	if r.Appointment != nil {
		a := *r.Appointment
		out.Appointment = &a
	}
	if r.Payment != nil {
		p := *r.Payment
		out.Payment = &p
	}
	if r.Document != nil {
		d := *r.Document
		out.Document = &d
	}
	return &out
}
