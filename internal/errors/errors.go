package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	ErrTripNotFound          = errors.New("trip not found")
	ErrPersonNotFound        = errors.New("person not found")
	ErrParticipationNotFound = errors.New("participation not found")
	ErrTripAlreadyStarted    = errors.New("trip already started")
	ErrInvalidTransition     = errors.New("invalid state transition")
	ErrNotRequested          = errors.New("ride request not found")
	ErrValidation            = errors.New("invalid payload")
	ErrConstraintViolation   = errors.New("constraint violation")
)

// APIError represents a transport-level error. Domain outcomes never use it;
// they travel inside the response envelope instead.
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func NotFound(resource string) *APIError {
	return NewAPIError("not_found", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func BadRequest(message string) *APIError {
	return NewAPIError("bad_request", message, http.StatusBadRequest)
}

func InternalError(message string) *APIError {
	return NewAPIError("internal_error", message, http.StatusInternalServerError)
}

func Unauthorized(message string) *APIError {
	return NewAPIError("unauthorized", message, http.StatusUnauthorized)
}

func IdempotencyConflict() *APIError {
	return NewAPIError("idempotency_conflict", "idempotency key already used with different request", http.StatusConflict)
}

func RequestInProgress() *APIError {
	return NewAPIError("request_in_progress", "a request with this idempotency key is already being processed", http.StatusConflict)
}

func RateLimited() *APIError {
	return NewAPIError("rate_limit_exceeded", "too many requests, please try again later", http.StatusTooManyRequests)
}

// Validation wraps a payload validation failure so callers can match it with errors.Is.
func Validation(detail string) error {
	return fmt.Errorf("%w: %s", ErrValidation, detail)
}

// Constraint wraps a storage constraint failure, keeping the driver's text.
func Constraint(err error) error {
	return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
}
