package utils

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
)

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// EnvelopeStatusHeader carries the envelope status so middleware can tell
// outcomes apart without decoding the body.
const EnvelopeStatusHeader = "X-Response-Status"

// Envelope sends a coordinator response. Positive and negative outcomes are
// both delivered with 200; only ERROR maps to a server failure.
func Envelope(w http.ResponseWriter, resp *models.Response) {
	status := http.StatusOK
	if resp.Status == models.StatusError {
		status = http.StatusInternalServerError
	}
	w.Header().Set(EnvelopeStatusHeader, resp.Status.String())
	JSON(w, status, resp)
}

// Error sends a transport-level error response
func Error(w http.ResponseWriter, err *apperrors.APIError) {
	JSON(w, err.StatusCode, map[string]string{
		"error":   err.Code,
		"message": err.Message,
	})
}

// BadRequest sends a 400 error
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, apperrors.BadRequest(message))
}

// InternalError sends a 500 error
func InternalError(w http.ResponseWriter, message string) {
	Error(w, apperrors.InternalError(message))
}
