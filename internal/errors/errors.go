package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeDataSource = "DATA_SOURCE_ERROR"
	ErrCodeRateLimit  = "RATE_LIMITED"
	ErrCodeConflict   = "CONFLICT"
)

// Soft build errors. They are logged and counted but never returned from a
// build.
var (
	ErrMalformedMove   = stderrors.New("malformed or illegal move")
	ErrAmbiguousSide   = stderrors.New("player matches neither side")
	ErrUnparseableDate = stderrors.New("unparseable game date")
	ErrUnknownResult   = stderrors.New("result is not a win, draw or loss")
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "DATA_SOURCE_ERROR")
	Message string // Human-readable error message
	Status  int    // HTTP status code
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

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewDataSourceError reports that the game store could not be read. It is the
// only error that aborts a tree build.
func NewDataSourceError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeDataSource,
		Message: "game store unavailable",
		Status:  503,
		Err:     err,
	}
}

// NewRateLimitError creates a new RATE_LIMITED error
func NewRateLimitError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimit,
		Message: message,
		Status:  429,
	}
}

// NewConflictError reports a request that does not fit the resource's
// current state, such as navigating a build that has not finished.
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  409,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsDataSource reports whether err is, or wraps, a DataSourceError.
func IsDataSource(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeDataSource
}
