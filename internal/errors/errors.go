package errors

import "fmt"

// Error codes
const (
	ErrCodeEmptyMap            = "EMPTY_MAP"
	ErrCodeInvalidTieMode      = "INVALID_TIE_MODE"
	ErrCodeAmbiguousTimestamp  = "AMBIGUOUS_TIMESTAMP"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "EMPTY_MAP", "INVALID_TIE_MODE")
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

// NewEmptyMapError reports a challenge that yielded zero result rows.
// Callers skip the map and continue the run.
func NewEmptyMapError(token string) *AppError {
	return &AppError{
		Code:    ErrCodeEmptyMap,
		Message: fmt.Sprintf("challenge %s has no result rows", token),
		Status:  422,
	}
}

// NewInvalidTieModeError reports an unrecognized tie mode. Fatal: the run is
// rejected before any fetching or scoring begins.
func NewInvalidTieModeError(mode string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidTieMode,
		Message: fmt.Sprintf("unknown tie mode %q (want average, min, max or dense)", mode),
		Status:  400,
	}
}

// NewAmbiguousTimestampError reports a played-at value that cannot be
// unambiguously localized. The row is treated as unknown-time.
func NewAmbiguousTimestampError(value string) *AppError {
	return &AppError{
		Code:    ErrCodeAmbiguousTimestamp,
		Message: fmt.Sprintf("timestamp %q cannot be unambiguously localized", value),
		Status:  422,
	}
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
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

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal error",
		Status:  500,
		Err:     err,
	}
}
