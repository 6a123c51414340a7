package middleware

import (
	"context"
	"net/http"

	"github.com/iyunix/go-dreamer/internal/domain"
)

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// RequireAdmin checks if the authenticated user has admin privileges.
// It MUST be used AFTER RequireAuth.
func RequireAdmin(users UserFinder, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFrom(r.Context())
			if userID == "" {
				logger.Warn("admin route without authenticated user", "path", r.URL.Path)
				WriteError(w, r, http.StatusForbidden, "Forbidden")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				// user deleted after the token was issued
				logger.Warn("admin check could not load user", "user_id", userID, "error", err)
				WriteError(w, r, http.StatusForbidden, "Forbidden")
				return
			}
			if !user.IsAdmin || !user.IsActive {
				logger.Warn("non-admin user attempted admin route", "user_id", userID, "path", r.URL.Path)
				WriteError(w, r, http.StatusForbidden, "Forbidden: You do not have permission to access this resource.")
				return
			}

			logger.Info("admin access granted", "user_id", userID, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
