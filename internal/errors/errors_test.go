package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationWrapsSentinel(t *testing.T) {
	err := Validation("mode.vacancy exceeds capacity")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "invalid payload: mode.vacancy exceeds capacity", err.Error())
}

func TestConstraintKeepsDriverText(t *testing.T) {
	cause := errors.New(`duplicate key value violates unique constraint "participations_trip_id_person_id_key"`)
	err := Constraint(cause)

	assert.True(t, errors.Is(err, ErrConstraintViolation))
	assert.Contains(t, err.Error(), "participations_trip_id_person_id_key")
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		err        *APIError
		wantCode   string
		wantStatus int
	}{
		{NotFound("route"), "not_found", http.StatusNotFound},
		{BadRequest("invalid request body"), "bad_request", http.StatusBadRequest},
		{Unauthorized("unknown caller"), "unauthorized", http.StatusUnauthorized},
		{RateLimited(), "rate_limit_exceeded", http.StatusTooManyRequests},
		{IdempotencyConflict(), "idempotency_conflict", http.StatusConflict},
		{RequestInProgress(), "request_in_progress", http.StatusConflict},
		{InternalError("boom"), "internal_error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantCode, tt.err.Code)
		assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
		assert.Equal(t, tt.err.Message, tt.err.Error())
	}
	assert.Equal(t, "route not found", NotFound("route").Message)
}
