// File: internal/services/ai/errors.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse means the backend answered but produced no content.
var ErrEmptyResponse = errors.New("empty response")

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeRateLimit  ErrorType = "RATE_LIMIT"
	ErrTypeQuota      ErrorType = "QUOTA"
	ErrTypeModel      ErrorType = "MODEL"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeTimeout    ErrorType = "TIMEOUT"
)

type AIError struct {
	Type      ErrorType
	Code      int
	Message   string
	Model     string
	Operation string
	Cause     error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("AI %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("AI %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AIError) Unwrap() error { return e.Cause }

// Retryable reports whether another provider or a later attempt could succeed.
func (e *AIError) Retryable() bool {
	switch e.Type {
	case ErrTypeNetwork, ErrTypeProvider, ErrTypeRateLimit, ErrTypeTimeout, ErrTypeModel:
		return true
	}
	return false
}

func NewConfigError(msg string) *AIError {
	return &AIError{Type: ErrTypeConfig, Message: msg, Operation: "config"}
}

func NewProviderError(operation, msg string, cause error) *AIError {
	return &AIError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

// Classify maps any error from an AI backend onto an *AIError. Errors that are
// already classified pass through unchanged.
func Classify(operation string, err error) *AIError {
	if err == nil {
		return nil
	}
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr
	}

	out := &AIError{Type: ErrTypeProvider, Operation: operation, Message: err.Error(), Cause: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var statusErr StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		out.Type = ErrTypeTimeout
		out.Message = "request timed out"
	case errors.Is(err, context.Canceled):
		out.Type = ErrTypeTimeout
		out.Message = "request canceled"
	case errors.As(err, &apiErr):
		out.Code = apiErr.HTTPStatusCode
		out.Message = apiErr.Message
		out.Type = typeForStatus(apiErr.HTTPStatusCode, apiErr.Message)
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			out.Type = ErrTypeQuota
		}
	case errors.As(err, &reqErr):
		out.Code = reqErr.HTTPStatusCode
		out.Type = typeForStatus(reqErr.HTTPStatusCode, reqErr.Error())
	case errors.As(err, &statusErr):
		out.Code = statusErr.StatusCode
		out.Type = typeForStatus(statusErr.StatusCode, statusErr.Body)
	case errors.As(err, &netErr):
		out.Type = ErrTypeNetwork
		if netErr.Timeout() {
			out.Type = ErrTypeTimeout
		}
	}
	return out
}

func typeForStatus(status int, msg string) ErrorType {
	lower := strings.ToLower(msg)
	switch {
	case status == http.StatusTooManyRequests && strings.Contains(lower, "quota"):
		return ErrTypeQuota
	case status == http.StatusTooManyRequests:
		return ErrTypeRateLimit
	case status == http.StatusPaymentRequired:
		return ErrTypeQuota
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrTypeConfig
	case status == http.StatusNotFound:
		return ErrTypeModel
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrTypeValidation
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTypeTimeout
	default:
		return ErrTypeProvider
	}
}

// StatusError is a non-2xx answer from an HTTP AI backend that has no SDK of its own.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}
