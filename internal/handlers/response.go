package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/dtos"
	"github.com/iyunix/go-dreamer/internal/middleware"
	"github.com/iyunix/go-dreamer/internal/repository"
	"github.com/iyunix/go-dreamer/internal/services/ai"
)

// Logger is the structured logger handlers write to.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

const maxBodyBytes = 1 << 20

const redacted = "***REDACTED***"

var sensitiveKeys = []string{"password", "token", "secret", "key", "authorization"}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	middleware.WriteError(w, r, status, message)
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, dtos.Envelope{Success: true, Data: data, Message: message})
}

// statusFor maps a service error onto an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperr.KindValidation:
			return http.StatusBadRequest, appErr.Message
		case apperr.KindUnauthorized:
			return http.StatusUnauthorized, appErr.Message
		case apperr.KindForbidden:
			return http.StatusForbidden, appErr.Message
		case apperr.KindNotFound:
			return http.StatusNotFound, appErr.Message
		case apperr.KindConflict:
			return http.StatusConflict, appErr.Message
		case apperr.KindUpgradeRequired:
			return http.StatusPaymentRequired, appErr.Message
		case apperr.KindRateLimited:
			return http.StatusTooManyRequests, appErr.Message
		}
		// internal kinds fall through to the generic message
	}

	var aiErr *ai.AIError
	if errors.As(err, &aiErr) {
		switch aiErr.Type {
		case ai.ErrTypeTimeout:
			return http.StatusGatewayTimeout, "The AI service timed out. Please try again."
		case ai.ErrTypeRateLimit, ai.ErrTypeQuota:
			return http.StatusServiceUnavailable, "The AI service is busy. Please try again later."
		}
		return http.StatusBadGateway, "The AI service is unavailable right now."
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "Resource already exists"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// writeServiceError is the single mapper from service errors to responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger Logger, err error) {
	status, message := statusFor(err)
	kv := []interface{}{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"request_id", middleware.RequestIDFrom(r.Context()),
		"user_id", middleware.UserIDFrom(r.Context()),
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", kv...)
	} else {
		logger.Warn("request rejected", kv...)
	}
	writeError(w, r, status, message)
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
// An empty body decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.NewValidationError("decode", "Invalid request body")
	}
	if err := dtos.Validate(dst); err != nil {
		return apperr.NewValidationError("validate", err.Error())
	}
	return nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.NewValidationError("query", fmt.Sprintf("%s must be an integer", name))
	}
	return v, nil
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// redact returns a copy of v with sensitive object fields masked.
func redact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if isSensitive(k) {
				out[k] = redacted
				continue
			}
			out[k] = redact(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = redact(val)
		}
		return out
	default:
		return v
	}
}
