// Package apperr holds the typed service errors the HTTP layer maps onto status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindUpgradeRequired Kind = "UPGRADE_REQUIRED"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindInternal        Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error in %s: %s (caused by: %v)", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewValidationError(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func NewUnauthorizedError(op, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Message: msg}
}

func NewForbiddenError(op, msg string) *Error {
	return &Error{Kind: KindForbidden, Op: op, Message: msg}
}

func NewNotFoundError(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func NewConflictError(op, msg string) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: msg}
}

func NewUpgradeRequiredError(op, msg string) *Error {
	return &Error{Kind: KindUpgradeRequired, Op: op, Message: msg}
}

func NewInternalError(op, msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: msg, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
