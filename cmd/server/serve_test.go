package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	up := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]healthCheck
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "memory storage has nothing to check",
			checks:     map[string]healthCheck{},
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "ok", "services": map[string]interface{}{}},
		},
		{
			name:       "all up",
			checks:     map[string]healthCheck{"database": up, "redis": up},
			wantStatus: http.StatusOK,
			wantBody: map[string]interface{}{
				"status":   "ok",
				"services": map[string]interface{}{"database": "up", "redis": "up"},
			},
		},
		{
			name:       "redis down",
			checks:     map[string]healthCheck{"database": up, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: map[string]interface{}{
				"status":   "degraded",
				"services": map[string]interface{}{"database": "up", "redis": "down"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthHandler(tt.checks)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
