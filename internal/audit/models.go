// Package audit captures administrative actions on citizen requests. Events
// are written to a transactional outbox in the same transaction as the domain
// change and shipped to Kafka by the outbox worker.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor,omitempty"`
	Subject   string    `json:"subject"`
	RequestID string    `json:"requestId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Actions recorded by the request lifecycle.
const (
	ActionRequestCreated  = "request.created"
	ActionStatusChanged   = "request.status_changed"
	ActionRequestRemoved  = "request.removed"
	ActionDocumentIssued  = "document.issued"
	ActionDocumentDeleted = "document.deleted"
)
