package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name           string
		write          func(w http.ResponseWriter, r *http.Request)
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name:           "bad request",
			write:          func(w http.ResponseWriter, r *http.Request) { BadRequest(w, r, "bad input") },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeBadRequest,
		},
		{
			name:           "unauthorised",
			write:          func(w http.ResponseWriter, r *http.Request) { Unauthorised(w, r, "no token") },
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeUnauthorised,
		},
		{
			name:           "method not allowed",
			write:          func(w http.ResponseWriter, r *http.Request) { MethodNotAllowed(w, r) },
			expectedStatus: http.StatusMethodNotAllowed,
			expectedCode:   ErrCodeMethodNotAllowed,
		},
		{
			name:           "upstream error",
			write:          func(w http.ResponseWriter, r *http.Request) { UpstreamError(w, r, assert.AnError) },
			expectedStatus: http.StatusBadGateway,
			expectedCode:   ErrCodeUpstreamError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			tt.write(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedStatus, resp.Status)
			assert.Equal(t, string(tt.expectedCode), resp.Code)
			assert.NotEmpty(t, resp.Message)
			assert.False(t, resp.Success)
			_, err := time.Parse(time.RFC3339, resp.Timestamp)
			assert.NoError(t, err)
		})
	}
}

func TestTooManyRequestsSetsRetryAfter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/scans", nil)
	rec := httptest.NewRecorder()

	TooManyRequests(rec, req, "slow down", 5*time.Second)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}
