package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"clinica/pkg/requestcontext"
)

// JWTClaims represents the claims the middleware needs from a validated
// token.
type JWTClaims struct {
	UserID int64
	Admin  bool
	// JTI identifies the token for revocation checks.
	JTI string
}

// JWTValidator validates bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// RevocationChecker reports whether a token has been revoked. A nil checker
// disables the check (no Redis configured).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + description + `"}`))
}

// RequireAuth validates the Authorization header and injects the
// authenticated user ID into the request context.
func RequireAuth(validator JWTValidator, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				unauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				unauthorized(w, "invalid or expired token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(ctx, claims.JTI)
				if err != nil {
					// Fail open: a revocation-list outage must not take
					// the clinic offline.
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err,
						"request_id", requestID,
					)
				} else if revoked {
					unauthorized(w, "token revoked")
					return
				}
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
