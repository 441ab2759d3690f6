// Package gateway is the public HTTP boundary: it authenticates callers,
// enforces per-route role and ownership rules, translates paths onto RPC
// commands, and maps fault kinds onto HTTP statuses.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	jwttoken "egov/internal/jwt_token"
	"egov/internal/platform/middleware"
	"egov/pkg/faults"
)

// Gateway holds the boundary dependencies shared by all handlers.
type Gateway struct {
	rpc      Dispatcher
	jwt      *jwttoken.JWTService
	log      *slog.Logger
	tokenTTL time.Duration
}

func New(rpc Dispatcher, jwt *jwttoken.JWTService, log *slog.Logger) *Gateway {
	return &Gateway{
		rpc:      rpc,
		jwt:      jwt,
		log:      log,
		tokenTTL: time.Hour,
	}
}

// forward relays one command and writes the raw reply through unchanged.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, service, command string, payload any) {
	var reply json.RawMessage
	if err := g.rpc.Send(r.Context(), service, command, payload, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeRaw(w, http.StatusOK, reply)
}

// fetch relays one command and decodes the reply locally, for handlers that
// need to inspect the result before responding.
func (g *Gateway) fetch(r *http.Request, service, command string, payload, reply any) error {
	return g.rpc.Send(r.Context(), service, command, payload, reply)
}

func principal(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		faults.WriteHTTP(w, faults.New(faults.KindUnauthorized, "authentication required"))
		return middleware.Principal{}, false
	}
	return p, true
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		faults.WriteHTTP(w, faults.Wrap(err, faults.KindBadRequest, "malformed request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	_, _ = w.Write(raw)
}
