// Package request owns the citizen request aggregate: the request row, its
// status state machine, and the three optional sub-resources (appointment,
// payment, document). This service is the canonical owner; everything else
// reads the aggregate through RPC.
package request

import "time"

// Type enumerates what a citizen can apply for.
type Type string

const (
	TypeIDCard         Type = "ID_CARD"
	TypePassport       Type = "PASSPORT"
	TypeCitizenship    Type = "CITIZENSHIP"
	TypeDrivingLicense Type = "DRIVING_LICENSE"
)

// ValidType reports whether t is a known request type.
func ValidType(t Type) bool {
	switch t {
	case TypeIDCard, TypePassport, TypeCitizenship, TypeDrivingLicense:
		return true
	}
	return false
}

// Status is the request workflow state.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusInProcess Status = "IN_PROCESS"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// ValidStatus reports whether s is a member of the closed status enum.
func ValidStatus(s Status) bool {
	switch s {
	case StatusCreated, StatusInProcess, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// ValidTransition implements the linear workflow policy:
// CREATED -> IN_PROCESS -> {APPROVED, REJECTED}, APPROVED -> COMPLETED.
// REJECTED and COMPLETED are terminal.
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusCreated:
		return to == StatusInProcess
	case StatusInProcess:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusCompleted
	default:
		return false
	}
}

// Request is the aggregate root.
type Request struct {
	ID             string     `json:"id"`
	CaseNumber     string     `json:"caseNumber"`
	Type           Type       `json:"type"`
	Status         Status     `json:"status"`
	SubmissionDate time.Time  `json:"submissionDate"`
	CitizenID      string     `json:"citizenId"`
	AdminMessage   string     `json:"adminMessage,omitempty"`
	ProcessedAt    *time.Time `json:"processedAt,omitempty"`
	ProcessedBy    string     `json:"processedBy,omitempty"`

	Appointment *Appointment `json:"appointment"`
	Payment     *Payment     `json:"payment"`
	Document    *Document    `json:"document"`
}

// Appointment is the scheduled visit for a request. At most one per request.
type Appointment struct {
	ID        string    `json:"id"`
	DateTime  time.Time `json:"dateTime"`
	Location  string    `json:"location"`
	RequestID string    `json:"requestId"`
}

// Payment records the administrative fee for a request. At most one per request.
type Payment struct {
	ID              string    `json:"id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	ReferenceNumber string    `json:"referenceNumber"`
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"requestId"`
}

// Document is the issued (or uploaded) document for a request. At most one
// per request. File* fields are set when the document was produced by upload.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	IssuedDate time.Time `json:"issuedDate"`
	FileKey    string    `json:"fileKey,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	FileSize   int64     `json:"fileSize,omitempty"`
	MimeType   string    `json:"mimeType,omitempty"`
	RequestID  string    `json:"requestId"`
}

// AppointmentSpec, PaymentSpec and DocumentSpec describe sub-resources
// supplied inline with request creation or through the dedicated add
// operations.
type AppointmentSpec struct {
	DateTime time.Time `json:"dateTime"`
	Location string    `json:"location"`
}

type PaymentSpec struct {
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	ReferenceNumber string    `json:"referenceNumber"`
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
}

type DocumentSpec struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	IssuedDate time.Time `json:"issuedDate"`
	FileKey    string    `json:"fileKey,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	FileSize   int64     `json:"fileSize,omitempty"`
	MimeType   string    `json:"mimeType,omitempty"`
}

// CreateDTO is the request-creation payload. Any subset of the three
// sub-resource specs may be present; whatever is present is created in the
// same transaction as the request row.
type CreateDTO struct {
	CaseNumber     string           `json:"caseNumber"`
	Type           Type             `json:"type"`
	Status         Status           `json:"status"`
	SubmissionDate time.Time        `json:"submissionDate"`
	CitizenID      string           `json:"citizenId"`
	Appointment    *AppointmentSpec `json:"appointment,omitempty"`
	Payment        *PaymentSpec     `json:"payment,omitempty"`
	Document       *DocumentSpec    `json:"document,omitempty"`
}

// UpdateStatusDTO drives the admin-only status transition.
type UpdateStatusDTO struct {
	Status       Status `json:"status"`
	AdminMessage string `json:"adminMessage,omitempty"`
	ProcessedBy  string `json:"processedBy,omitempty"`
}

// Filter narrows List. Zero-valued fields are unconstrained.
type Filter struct {
	CitizenID string `json:"citizenId,omitempty"`
	Status    Status `json:"requestStatus,omitempty"`
	Type      Type   `json:"requestType,omitempty"`
}
