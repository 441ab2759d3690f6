package faults

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus_FixedTable(t *testing.T) {
	cases := map[Kind]int{
		KindConflict:     http.StatusConflict,
		KindNotFound:     http.StatusNotFound,
		KindBadRequest:   http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindInternal:     http.StatusInternalServerError,
		Kind("GARBAGE"):  http.StatusInternalServerError,
		Kind(""):         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), "kind %q", kind)
	}
}

func TestFrom_PreservesTaggedFault(t *testing.T) {
	orig := New(KindConflict, "case number already exists")
	wrapped := fmt.Errorf("create request: %w", orig)

	f := From(wrapped)
	assert.Equal(t, KindConflict, f.Kind)
	assert.Equal(t, "case number already exists", f.Message)
}

func TestFrom_UntaggedDegradesToInternal(t *testing.T) {
	f := From(errors.New("pq: connection refused"))
	assert.Equal(t, KindInternal, f.Kind)
	assert.Equal(t, "pq: connection refused", f.Message)
}

func TestFrom_Nil(t *testing.T) {
	assert.Nil(t, From(nil))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(KindNotFound, "request not found"))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
	assert.False(t, Is(errors.New("plain"), KindNotFound))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("unique_violation")
	f := Wrap(cause, KindConflict, "appointment already exists")
	assert.True(t, errors.Is(f, cause))
	assert.Equal(t, KindConflict, f.Kind)
}

func TestWriteHTTP_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteHTTP(rr, New(KindForbidden, "not your request"))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, http.StatusForbidden, env.StatusCode)
	assert.Equal(t, "not your request", env.Message)
	assert.NotEmpty(t, env.Timestamp)
}

func TestWriteHTTP_UntaggedError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteHTTP(rr, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "boom", env.Message)
}
