package service

import (
	"errors"
	"fmt"

	"github.com/stanstork/tickr-api/internal/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation error")
	// ErrUnauthorized covers bad credentials and rejected tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a client-facing reason. errors.Is matches it against its Kind.
type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func forbidden(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

func conflict(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

func invalidState(format string, args ...interface{}) error {
	return newError(ErrInvalidState, format, args...)
}

func invalid(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func unauthorized(format string, args ...interface{}) error {
	return newError(ErrUnauthorized, format, args...)
}

// storage maps repository sentinels onto the service taxonomy. Unknown failures
// are annotated and surface as internal errors.
func storage(err error, notFoundReason, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound("%s", notFoundReason)
	case errors.Is(err, repository.ErrConflict):
		return conflict("%s: already exists", op)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Reason extracts the client-facing message of a service error.
func Reason(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason, true
	}
	return "", false
}
