package apperror

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternal       = errors.New("internal server error")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrDeadlinePassed = errors.New("deadline passed")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrDeadlinePassed) {
		return http.StatusBadRequest
	}
	// Default to internal server error
	return http.StatusInternalServerError
}

var sentinels = []error{
	ErrNotFound, ErrUnauthorized, ErrForbidden, ErrBadRequest,
	ErrInternal, ErrInvalidInput, ErrConflict, ErrDeadlinePassed,
}

// Message returns the user-facing part of an error built as
// fmt.Errorf("<message>: %w", sentinel). Errors that do not wrap a sentinel
// (for example store failures) are returned verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, s := range sentinels {
		if !errors.Is(err, s) {
			continue
		}
		suffix := ": " + s.Error()
		if trimmed, ok := strings.CutSuffix(msg, suffix); ok {
			return trimmed
		}
	}
	return msg
}
