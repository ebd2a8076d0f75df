package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNetwork     = "NETWORK_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeServer      = "SERVER_ERROR"
	ErrCodeParse       = "PARSE_ERROR"
	ErrCodeConsistency = "CONSISTENCY_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// AppError represents a classified failure with an HTTP status and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "VALIDATION_ERROR")
	Message string // Human-readable error message
	Status  int    // HTTP status code used when surfaced over HTTP
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a VALIDATION_ERROR for bad local input
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewNetworkError creates a NETWORK_ERROR wrapping a transport failure
func NewNetworkError(op string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: fmt.Sprintf("%s: request failed", op),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// NewNotFoundError creates a NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewServerError creates a SERVER_ERROR for a non-2xx response from the stats service
func NewServerError(op string, status int, body string) *AppError {
	msg := fmt.Sprintf("%s: status %d", op, status)
	if body != "" {
		msg = fmt.Sprintf("%s: status %d: %s", op, status, body)
	}
	return &AppError{
		Code:    ErrCodeServer,
		Message: msg,
		Status:  http.StatusBadGateway,
	}
}

// NewParseError creates a PARSE_ERROR for a malformed response body
func NewParseError(op string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeParse,
		Message: fmt.Sprintf("%s: malformed response", op),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// NewConsistencyError creates a CONSISTENCY_ERROR for a well-formed but contradictory payload
func NewConsistencyError(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeConsistency,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusUnprocessableEntity,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or INTERNAL_ERROR.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
