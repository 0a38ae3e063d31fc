package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"dispute-notepad/internal/interfaces"

	"github.com/rs/zerolog"
)

// ErrorCode represents standardized error codes for API responses
type ErrorCode int

const (
	// Client errors (4xx equivalent)
	ErrorCodeInvalidRequest ErrorCode = 4000
	ErrorCodeEmptyInput     ErrorCode = 4001
	ErrorCodeInputTooLong   ErrorCode = 4002

	// Server errors (5xx equivalent)
	ErrorCodeInternalError        ErrorCode = 5000
	ErrorCodeServiceUnavailable   ErrorCode = 5001
	ErrorCodeMissingResource      ErrorCode = 5002
	ErrorCodeMissingConfiguration ErrorCode = 5003
	ErrorCodeProviderError        ErrorCode = 5004
	ErrorCodeTimeout              ErrorCode = 5005
)

// APIError represents a structured error response
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("API Error %d: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("API Error %d: %s", e.Code, e.Message)
}

// NewAPIError creates a new structured API error
func NewAPIError(code ErrorCode, message string, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WrapError wraps a regular error into an API error with appropriate code
func WrapError(err error, code ErrorCode, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: err.Error(),
	}
}

// FromError maps a recommendation failure onto its API error
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, interfaces.ErrEmptyInput):
		return NewAPIError(ErrorCodeEmptyInput, "Enter dispute details before asking for a recommendation.")
	case errors.Is(err, interfaces.ErrMissingResource):
		return WrapError(err, ErrorCodeMissingResource, "The instruction document is missing.")
	case errors.Is(err, interfaces.ErrMissingConfiguration):
		return WrapError(err, ErrorCodeMissingConfiguration, "No generative provider is configured. Set GEMINI_API_KEY or use the keyword strategy.")
	case errors.Is(err, context.DeadlineExceeded):
		return WrapError(err, ErrorCodeTimeout, "The recommendation took too long.")
	case errors.Is(err, interfaces.ErrProvider):
		return WrapError(err, ErrorCodeProviderError, "The generative provider request failed.")
	default:
		return WrapError(err, ErrorCodeInternalError, "internal server error")
	}
}

// HTTPStatus returns the HTTP status for the error code
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case ErrorCodeInvalidRequest, ErrorCodeEmptyInput:
		return http.StatusBadRequest
	case ErrorCodeInputTooLong:
		return http.StatusRequestEntityTooLarge
	case ErrorCodeServiceUnavailable, ErrorCodeMissingResource, ErrorCodeMissingConfiguration:
		return http.StatusServiceUnavailable
	case ErrorCodeProviderError:
		return http.StatusBadGateway
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Severity is "warning" for client errors and "error" otherwise
func (e *APIError) Severity() string {
	if IsClientError(e) {
		return "warning"
	}
	return "error"
}

// Inline returns the text shown next to the action that failed
func (e *APIError) Inline() string {
	if e.Details != "" && e.Code != ErrorCodeInternalError {
		return fmt.Sprintf("%s %s", e.Message, e.Details)
	}
	return e.Message
}

// LogError logs an error with appropriate level based on error code
func LogError(logger zerolog.Logger, err error, op string) {
	event := logger.Error()
	if IsClientError(err) {
		event = logger.Warn()
	}
	event.Err(err).Str("op", op).Msg("Request failed")
}

// IsClientError returns true if the error is a client-side error
func IsClientError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 4000 && apiErr.Code < 5000
	}
	return false
}

// IsServerError returns true if the error is a server-side error
func IsServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 5000
	}
	return false
}
