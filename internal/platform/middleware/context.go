package middleware

import (
	"context"

	jwttoken "egov/internal/jwt_token"
)

// Principal is the authenticated caller materialized from a verified token.
// It is attached to the request context by RequireAuth and never persisted.
type Principal struct {
	ID   string
	JMBG string
	Role jwttoken.Role
}

// IsAdmin reports whether the principal carries the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == jwttoken.RoleAdmin }

type contextKeyPrincipal struct{}
type contextKeyRequestID struct{}

var (
	principalKey = contextKeyPrincipal{}
	requestIDKey = contextKeyRequestID{}
)

// WithPrincipal stores the principal in ctx. Exported for handler tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, ok := ctx.Value(requestIDKey).(string)
	if !ok {
		return ""
	}
	return id
}
