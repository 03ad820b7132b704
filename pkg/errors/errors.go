package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so clones compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden            = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized         = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrDuplicateScore       = New("DUPLICATE_SCORE", http.StatusConflict, "score already recorded for exam, student and course")
	ErrConfigurationMissing = New("CONFIGURATION_MISSING", http.StatusUnprocessableEntity, "course score thresholds not configured")
	ErrConcurrencyConflict  = New("CONCURRENCY_CONFLICT", http.StatusServiceUnavailable, "scope is being updated concurrently, retry later")
	ErrScopeMismatch        = New("SCOPE_MISMATCH", http.StatusInternalServerError, "scores span more than one ranking scope")
	ErrInternal             = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss            = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetail returns a copy of err carrying an extra detail entry.
func WithDetail(err *Error, key string, value interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	details := make(map[string]interface{}, len(err.Details)+1)
	for k, v := range err.Details {
		details[k] = v
	}
	details[key] = value
	clone.Details = details
	return &clone
}
