package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusAccepted, map[string]int{"accepted": 2})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"accepted":2}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"not found", apperrors.NotFound("Courier"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"invalid input", apperrors.InvalidInput("limit", "negative"), http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"unauthorized", apperrors.Unauthorized("Invalid token"), http.StatusUnauthorized, apperrors.ErrCodeUnauthorized},
		{"queue full", apperrors.QueueFull(), http.StatusServiceUnavailable, apperrors.ErrCodeQueueFull},
		{"store connection", apperrors.StoreConnection(errors.New("refused")), http.StatusServiceUnavailable, apperrors.ErrCodeStoreConnection},
		{"payload too large", apperrors.PayloadTooLarge(10), http.StatusRequestEntityTooLarge, apperrors.ErrCodePayloadTooLarge},
		{"rate limited", apperrors.RateLimitExceeded(), http.StatusTooManyRequests, apperrors.ErrCodeRateLimitExceeded},
		{"external", apperrors.External("dashboard", errors.New("timeout")), http.StatusBadGateway, apperrors.ErrCodeExternal},
		{"database", apperrors.Database(errors.New("syntax")), http.StatusInternalServerError, apperrors.ErrCodeDatabase},
		{"plain error", errors.New("secret detail"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			WriteError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotContains(t, body.Error, "secret detail")
		})
	}
}
