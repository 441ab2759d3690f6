package request

import (
	"context"
	"errors"
	"time"
)

// Store sentinel errors. The service layer maps these onto fault kinds.
var (
	ErrNotFound      = errors.New("request not found")
	ErrDuplicate     = errors.New("request already exists")
	ErrSubNotFound   = errors.New("sub-resource not found")
	ErrSubDuplicate  = errors.New("sub-resource already exists for request")
	ErrParentMissing = errors.New("parent request not found")
)

// Store persists the request aggregate. Create writes the request row and
// every sub-resource attached to it in one atomic unit: a failure on any
// row leaves nothing behind.
type Store interface {
	Create(ctx context.Context, req *Request) error
	Get(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context, f Filter) ([]*Request, error)
	UpdateStatus(ctx context.Context, req *Request) error
	Delete(ctx context.Context, id string) error

	AddAppointment(ctx context.Context, a *Appointment) error
	GetAppointment(ctx context.Context, id string) (*Appointment, error)
	GetAppointmentByRequest(ctx context.Context, requestID string) (*Appointment, error)
	ListAppointments(ctx context.Context) ([]*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) error
	DeleteAppointment(ctx context.Context, id string) error

	AddPayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetPaymentByRequest(ctx context.Context, requestID string) (*Payment, error)
	ListPayments(ctx context.Context) ([]*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, id string) error

	AddDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetDocumentByRequest(ctx context.Context, requestID string) (*Document, error)
	GetDocumentByFileKey(ctx context.Context, fileKey string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	UpdateDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, id string) error

	// CountDocumentsByType counts documents issued in [from, to), grouped
	// by document type.
	CountDocumentsByType(ctx context.Context, from, to time.Time) (map[string]int, error)
}
