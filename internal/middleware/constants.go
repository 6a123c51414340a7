package middleware

import (
	"context"

	"github.com/iyunix/go-dreamer/internal/auth"
)

// Context keys for middleware communication
type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	ClaimsKey    contextKey = "claims"
	RequestIDKey contextKey = "request_id"
)

const RequestIDHeader = "X-Request-ID"

// Logger is the structured logger the middleware writes to.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// UserIDFrom returns the authenticated user id, or "" for anonymous requests.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func ClaimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(ClaimsKey).(*auth.Claims)
	return c
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithUser stores the authenticated identity on ctx.
func WithUser(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, UserIDKey, claims.UserID())
}
