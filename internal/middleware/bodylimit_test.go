package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyLimitMiddleware(t *testing.T) {
	t.Run("defaults to 1MB", func(t *testing.T) {
		assert.Equal(t, int64(DefaultMaxBodySize), NewBodyLimitMiddleware(0).maxSize)
	})

	t.Run("rejects declared oversized body", func(t *testing.T) {
		m := NewBodyLimitMiddleware(8)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
		rec := httptest.NewRecorder()

		m.Handler(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
	})

	t.Run("caps undeclared body", func(t *testing.T) {
		m := NewBodyLimitMiddleware(8)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
		req.ContentLength = -1
		rec := httptest.NewRecorder()

		var readErr error
		m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, readErr = io.ReadAll(r.Body)
		})).ServeHTTP(rec, req)

		var maxErr *http.MaxBytesError
		assert.True(t, errors.As(readErr, &maxErr))
	})

	t.Run("passes small body", func(t *testing.T) {
		m := NewBodyLimitMiddleware(64)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
		rec := httptest.NewRecorder()

		m.Handler(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
