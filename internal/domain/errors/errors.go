// Package errors provides domain-specific error types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for domain errors.
const (
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeInternal              = "INTERNAL_ERROR"
	ErrCodeConflict              = "CONFLICT"
	ErrCodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeAccessDenied          = "ACCESS_DENIED"
	ErrCodeSessionNotFound       = "SESSION_NOT_FOUND"
	ErrCodeInferenceFailure      = "INFERENCE_FAILURE"
	ErrCodeTransportDisconnected = "TRANSPORT_DISCONNECTED"
	ErrCodeDuplicateSubmission   = "DUPLICATE_SUBMISSION"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    identifier,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeInternal,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeConflict,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusConflict,
	}
}

// NewServiceUnavailableError creates a new service unavailable error.
func NewServiceUnavailableError(service string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeServiceUnavailable,
		Message:    fmt.Sprintf("%s is unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewAccessDeniedError is returned when a capability token is missing,
// expired or scoped to another bot.
func NewAccessDeniedError(botID string) *DomainError {
	return &DomainError{
		Code:       ErrCodeAccessDenied,
		Message:    "access denied",
		Details:    botID,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewSessionNotFoundError is returned for stale or malformed session ids.
func NewSessionNotFoundError(sessionID string) *DomainError {
	return &DomainError{
		Code:       ErrCodeSessionNotFound,
		Message:    "session not found",
		Details:    sessionID,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewInferenceFailureError wraps an upstream inference error or timeout.
func NewInferenceFailureError(err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeInferenceFailure,
		Message:    "inference failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewTransportDisconnectedError marks a dropped push connection.
func NewTransportDisconnectedError(err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeTransportDisconnected,
		Message:    "push connection lost",
		Details:    details,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewDuplicateSubmissionError marks a feedback or lead that was already
// recorded. Callers treat it as a successful no-op.
func NewDuplicateSubmissionError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeDuplicateSubmission,
		Message:    fmt.Sprintf("%s already submitted", resource),
		Details:    identifier,
		HTTPStatus: http.StatusOK,
	}
}

// NewInvalidTransitionError is returned when a handoff event is not allowed
// from the current status.
func NewInvalidTransitionError(from, event string) *DomainError {
	return &DomainError{
		Code:       ErrCodeInvalidTransition,
		Message:    "invalid handoff transition",
		Details:    fmt.Sprintf("%s from %s", event, from),
		HTTPStatus: http.StatusConflict,
	}
}

// GetDomainError extracts the domain error from an error.
func GetDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code string) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == code
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

// IsAccessDenied checks if the error is an access denied error.
func IsAccessDenied(err error) bool {
	return HasCode(err, ErrCodeAccessDenied)
}

// IsSessionNotFound checks if the error is a session not found error.
func IsSessionNotFound(err error) bool {
	return HasCode(err, ErrCodeSessionNotFound)
}

// IsDuplicateSubmission checks if the error is a duplicate submission.
func IsDuplicateSubmission(err error) bool {
	return HasCode(err, ErrCodeDuplicateSubmission)
}

// IsInvalidTransition checks if the error is an invalid handoff transition.
func IsInvalidTransition(err error) bool {
	return HasCode(err, ErrCodeInvalidTransition)
}
