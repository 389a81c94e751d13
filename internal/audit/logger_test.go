package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = original })
	return &buf
}

func TestLog(t *testing.T) {
	buf := captureLog(t)

	Log(context.Background(), Event{
		Type:    EventStorePurged,
		Source:  "retention",
		Details: map[string]interface{}{"couriers": 3, "wrapped": false},
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "store_purged", line["event_type"])
	assert.Equal(t, "retention", line["source"])
	assert.Equal(t, float64(3), line["couriers"])
	assert.Equal(t, false, line["wrapped"])
	assert.Equal(t, "audit event", line["message"])
}

func TestLogFromRequest(t *testing.T) {
	buf := captureLog(t)

	req := httptest.NewRequest("POST", "/v1/observations", nil)
	req.Header.Set("X-Real-IP", "10.0.0.7")
	req.Header.Set("User-Agent", "scraper/1.0")

	LogFromRequest(req, Event{Type: EventAuthFailure})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "auth_failure", line["event_type"])
	assert.Equal(t, "10.0.0.7", line["ip"])
	assert.Equal(t, "scraper/1.0", line["user_agent"])
}

func TestClientIP(t *testing.T) {
	t.Run("forwarded header wins", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", "1.2.3.4")
		req.Header.Set("X-Real-IP", "5.6.7.8")
		assert.Equal(t, "1.2.3.4", ClientIP(req))
	})

	t.Run("falls back to remote addr", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		assert.Equal(t, req.RemoteAddr, ClientIP(req))
	})
}
