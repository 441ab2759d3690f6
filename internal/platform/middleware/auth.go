package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	jwttoken "egov/internal/jwt_token"
	"egov/pkg/faults"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// RequireAuth materializes a Principal from the Bearer token and attaches it
// to the request context. Requests without a valid token never reach the
// handler chain (fail closed).
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "

			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				faults.WriteHTTP(w, faults.New(faults.KindUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				faults.WriteHTTP(w, faults.New(faults.KindUnauthorized, "invalid or expired token"))
				return
			}

			ctx = WithPrincipal(ctx, Principal{
				ID:   claims.UserID,
				JMBG: claims.JMBG,
				Role: claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
