package errors

import (
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined errors
var (
	ErrNotFound = &AppError{
		Code:    "NOT_FOUND",
		Message: "Resource not found",
		Status:  http.StatusNotFound,
	}

	ErrUnauthorized = &AppError{
		Code:    "UNAUTHORIZED",
		Message: "Unauthorized access",
		Status:  http.StatusUnauthorized,
	}

	ErrBadRequest = &AppError{
		Code:    "BAD_REQUEST",
		Message: "Invalid request",
		Status:  http.StatusBadRequest,
	}

	ErrInternalServer = &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}

	ErrValidation = &AppError{
		Code:    "VALIDATION_ERROR",
		Message: "Validation failed",
		Status:  http.StatusBadRequest,
	}

	// ErrRateLimited is returned by the router before any work is admitted.
	// Handlers attach a retry_after field to the response body.
	ErrRateLimited = &AppError{
		Code:    "RATE_LIMITED",
		Message: "Rate limit exceeded",
		Status:  http.StatusTooManyRequests,
	}

	// ErrQueuePublish means the broker did not acknowledge the job in time.
	// The request was not admitted; the client may safely resubmit.
	ErrQueuePublish = &AppError{
		Code:    "QUEUE_PUBLISH_FAILED",
		Message: "Failed to enqueue document request",
		Status:  http.StatusServiceUnavailable,
	}

	ErrTemplateNotFound = &AppError{
		Code:    "TEMPLATE_NOT_FOUND",
		Message: "Template not found",
		Status:  http.StatusNotFound,
	}

	ErrCompilerFailed = &AppError{
		Code:    "COMPILER_FAILED",
		Message: "Document compilation failed",
		Status:  http.StatusInternalServerError,
	}

	ErrStorageFailed = &AppError{
		Code:    "STORAGE_FAILED",
		Message: "Failed to store generated document",
		Status:  http.StatusInternalServerError,
	}
)

// WithMessage returns a copy of the error with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Err:     e.Err,
	}
}

// WithError returns a copy of the error carrying the underlying cause.
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

func NewError(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func WrapError(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ErrorResponse is a common error response format
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
