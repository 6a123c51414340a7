package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/auth"
)

// Authenticator validates an access token; revoked tokens are rejected.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(a Authenticator, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteError(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := a.Authenticate(r.Context(), token)
			if err != nil {
				if apperr.Is(err, apperr.KindUnauthorized) {
					logger.Warn("rejected bearer token", "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "error", err)
					WriteError(w, r, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				logger.Error("token check failed", "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "error", err)
				WriteError(w, r, http.StatusInternalServerError, "internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if claims, err := a.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(WithUser(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
