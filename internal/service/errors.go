package service

import (
	"errors"
	"fmt"

	"rentbook/internal/docstore"

	"github.com/rs/zerolog"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

// InternalMessage is the only text clients see for unexpected failures.
const InternalMessage = "internal server error"

// Error is a domain error with a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

func forbidden(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}

func notFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

// internalError logs the cause and hides it behind the fixed message.
func internalError(logger *zerolog.Logger, op string, err error) error {
	logger.Error().Err(err).Str("op", op).Msg("unexpected failure")
	return &Error{Kind: ErrInternal, Message: InternalMessage}
}

// storeError passes domain errors through and translates storage errors.
// notFoundMsg is used when the document is missing.
func storeError(logger *zerolog.Logger, op string, err error, notFoundMsg string) error {
	var domainErr *Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, docstore.ErrNotFound):
		return notFound("%s", notFoundMsg)
	case errors.Is(err, docstore.ErrVersionMismatch):
		return newError(ErrConflict, "the record was modified concurrently, retry the request")
	default:
		return internalError(logger, op, err)
	}
}
