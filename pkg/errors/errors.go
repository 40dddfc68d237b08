// Package errors defines the sentinel errors shared by the index, query and
// search layers, and maps them to HTTP status codes.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrCancelled         = errors.New("operation cancelled")
	ErrEmptyQuery        = errors.New("empty query")
	ErrInvalidTerm       = errors.New("invalid term")
	ErrSyntax            = errors.New("syntax error")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptIndex      = errors.New("corrupt index file")
	ErrInternal          = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// InvalidArgument builds a 400 AppError wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) *AppError {
	return Newf(ErrInvalidArgument, http.StatusBadRequest, format, args...)
}

// Cancelled wraps a context error so that it matches both ErrCancelled and
// the original context error under errors.Is.
func Cancelled(cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// IsQueryError reports whether err is caused by a malformed query.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrInvalidTerm) ||
		errors.Is(err, ErrSyntax)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case IsQueryError(err), errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
