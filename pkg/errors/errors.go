// Package errors defines the error taxonomy shared by the build and query
// paths, plus an AppError wrapper that carries an HTTP status for handlers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedInput marks bad document or token data seen at build
	// time. The build aborts and no index is published.
	ErrMalformedInput = errors.New("malformed input")
	// ErrSourceUnavailable marks a document source that cannot be fetched.
	ErrSourceUnavailable = errors.New("document source unavailable")
	// ErrCorruptIndex marks a persisted index that failed validation on
	// load. The caller must rebuild; a partial index is never returned.
	ErrCorruptIndex = errors.New("corrupt index")
	// ErrNoIndex marks a query arriving before any index was installed.
	ErrNoIndex = errors.New("no index loaded")

	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrTimeout      = errors.New("operation timed out")
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

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoIndex), errors.Is(err, ErrSourceUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
