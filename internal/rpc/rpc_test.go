package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egov/internal/platform/metrics"
	"egov/pkg/faults"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestServer(t *testing.T, register func(*Server)) *httptest.Server {
	t.Helper()
	srv := NewServer(testLogger())
	register(srv)
	r := chi.NewRouter()
	srv.Register(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_SendRoundTrip(t *testing.T) {
	type echoReq struct {
		Name string `json:"name"`
	}
	type echoResp struct {
		Greeting string `json:"greeting"`
	}

	ts := newTestServer(t, func(s *Server) {
		s.Handle("echo", func(_ context.Context, payload json.RawMessage) (any, error) {
			var req echoReq
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, faults.New(faults.KindBadRequest, "bad payload")
			}
			return echoResp{Greeting: "hello " + req.Name}, nil
		})
	})

	c := NewClient(map[string]string{"mup-service": ts.URL}, time.Second, metrics.NewForTest())

	var resp echoResp
	err := c.Send(context.Background(), "mup-service", "echo", echoReq{Name: "mira"}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "hello mira", resp.Greeting)
}

func TestClient_FaultKindSurvives(t *testing.T) {
	ts := newTestServer(t, func(s *Server) {
		s.Handle("conflict", func(context.Context, json.RawMessage) (any, error) {
			return nil, faults.New(faults.KindConflict, "appointment already exists")
		})
	})

	c := NewClient(map[string]string{"mup-service": ts.URL}, time.Second, metrics.NewForTest())
	err := c.Send(context.Background(), "mup-service", "conflict", nil, nil)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindConflict))
	assert.Equal(t, "appointment already exists", faults.From(err).Message)
}

func TestClient_UntaggedBackendErrorBecomesInternal(t *testing.T) {
	ts := newTestServer(t, func(s *Server) {
		s.Handle("boom", func(context.Context, json.RawMessage) (any, error) {
			return nil, errors.New("nil pointer somewhere deep")
		})
	})

	c := NewClient(map[string]string{"mup-service": ts.URL}, time.Second, metrics.NewForTest())
	err := c.Send(context.Background(), "mup-service", "boom", nil, nil)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindInternal))
	// Original message preserved for diagnostics.
	assert.Equal(t, "nil pointer somewhere deep", faults.From(err).Message)
}

func TestClient_MalformedFaultBodyDegradesToInternal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(ts.Close)

	c := NewClient(map[string]string{"mup-service": ts.URL}, time.Second, metrics.NewForTest())
	err := c.Send(context.Background(), "mup-service", "anything", nil, nil)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindInternal))
}

func TestClient_UnknownServicePanics(t *testing.T) {
	c := NewClient(map[string]string{}, time.Second, metrics.NewForTest())
	assert.Panics(t, func() {
		_ = c.Send(context.Background(), "no-such-service", "echo", nil, nil)
	})
}

func TestClient_TimeoutProducesFaultNotHang(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(ts.Close)

	c := NewClient(map[string]string{"mup-service": ts.URL}, 50*time.Millisecond, metrics.NewForTest())

	start := time.Now()
	err := c.Send(context.Background(), "mup-service", "slow", nil, nil)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindInternal))
	assert.Less(t, time.Since(start), time.Second)
}

func TestServer_UnknownCommand(t *testing.T) {
	ts := newTestServer(t, func(*Server) {})

	c := NewClient(map[string]string{"mup-service": ts.URL}, time.Second, metrics.NewForTest())
	err := c.Send(context.Background(), "mup-service", "nope", nil, nil)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindNotFound))
}

func TestServer_DuplicateCommandPanics(t *testing.T) {
	s := NewServer(testLogger())
	h := func(context.Context, json.RawMessage) (any, error) { return nil, nil }
	s.Handle("x", h)
	assert.Panics(t, func() { s.Handle("x", h) })
}
