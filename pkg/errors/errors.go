package errors

import (
	"errors"
	"fmt"
	"net/http"

	"gridcast/internal/core/domain"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidLayout  ErrorCode = "INVALID_LAYOUT"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"
	ErrCodeNoFreePort     ErrorCode = "NO_FREE_PORT"
	ErrCodeEngineFailure  ErrorCode = "ENGINE_FAILURE"
	ErrCodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and HTTP mapping
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// FromDomain maps the core's sentinel errors onto the HTTP-facing taxonomy.
// Unrecognized errors become internal errors so nothing leaks unclassified.
func FromDomain(err error) *AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrRelayNotFound),
		errors.Is(err, domain.ErrSourceNotFound),
		errors.Is(err, domain.ErrTemplateNotFound):
		return &AppError{Code: ErrCodeNotFound, Message: err.Error(), HTTPStatus: http.StatusNotFound, Cause: err}
	case errors.Is(err, domain.ErrAlreadyRunning):
		return &AppError{Code: ErrCodeAlreadyRunning, Message: err.Error(), HTTPStatus: http.StatusConflict, Cause: err}
	case errors.Is(err, domain.ErrTemplateInUse):
		return &AppError{Code: ErrCodeConflict, Message: err.Error(), HTTPStatus: http.StatusConflict, Cause: err}
	case errors.Is(err, domain.ErrNoFreePort):
		return &AppError{Code: ErrCodeNoFreePort, Message: err.Error(), HTTPStatus: http.StatusServiceUnavailable, Cause: err}
	case errors.Is(err, domain.ErrNoMappings),
		errors.Is(err, domain.ErrEmptyLayout),
		errors.Is(err, domain.ErrSlotOutOfRange):
		return &AppError{Code: ErrCodeInvalidLayout, Message: err.Error(), HTTPStatus: http.StatusUnprocessableEntity, Cause: err}
	default:
		return &AppError{Code: ErrCodeInternal, Message: err.Error(), HTTPStatus: http.StatusInternalServerError, Cause: err}
	}
}

// IsAppError checks if error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
