// Package faults defines the tagged error values exchanged between the
// backend services and the gateway. Stores and services return Faults
// (optionally wrapped); the RPC layer carries the kind across the wire and
// the gateway translates it to an HTTP status. Anything that is not a Fault
// degrades to KindInternal so an unhandled error never reaches a caller raw.
package faults

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Kind tags a fault with its boundary meaning.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindInternal     Kind = "INTERNAL"
)

// Fault is a tagged error. The JSON shape is also the RPC wire form.
type Fault struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	cause   error
}

func (f *Fault) Error() string {
	return string(f.Kind) + ": " + f.Message
}

func (f *Fault) Unwrap() error { return f.cause }

// New builds a fault with the given kind and message.
func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error, preserving the
// cause for errors.Is/errors.As chains.
func Wrap(err error, kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message, cause: err}
}

// From returns the Fault carried by err, or an INTERNAL fault preserving the
// original message when err is untagged. From(nil) returns nil.
func From(err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return &Fault{Kind: KindInternal, Message: err.Error(), cause: err}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}

// HTTPStatus maps a kind to its boundary status code. The mapping is total:
// unrecognized kinds fall through to 500.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Envelope is the JSON failure body returned from the gateway. No stack
// traces, only the status, the message, and when it happened.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// WriteHTTP renders err as a boundary failure response.
func WriteHTTP(w http.ResponseWriter, err error) {
	f := From(err)
	status := HTTPStatus(f.Kind)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Message:    f.Message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
