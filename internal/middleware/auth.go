package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/courierwatch/courier-tracker/internal/audit"
	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/util"
)

// IngestAuthMiddleware guards the observation endpoint with a shared bearer token.
// The token may be configured in plain text or as a bcrypt hash; with neither
// set every request passes.
type IngestAuthMiddleware struct {
	tokenDigest string
	tokenHash   string
}

func NewIngestAuthMiddleware(token, bcryptHash string) *IngestAuthMiddleware {
	m := &IngestAuthMiddleware{tokenHash: strings.TrimSpace(bcryptHash)}
	if token != "" {
		m.tokenDigest = util.HashToken(token)
	}
	return m
}

func (m *IngestAuthMiddleware) Enabled() bool {
	return m.tokenDigest != "" || m.tokenHash != ""
}

func (m *IngestAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		if !m.valid(token) {
			log.Warn().Str("ip", audit.ClientIP(r)).Msg("ingest auth: invalid token attempt")
			audit.LogFromRequest(r, audit.Event{
				Type:   audit.EventAuthFailure,
				Source: "ingest",
			})
			writeError(w, apperrors.Unauthorized("Invalid token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *IngestAuthMiddleware) valid(token string) bool {
	if m.tokenDigest != "" && util.ConstantTimeEqual(util.HashToken(token), m.tokenDigest) {
		return true
	}
	if m.tokenHash != "" && util.CheckSecretHash(token, m.tokenHash) {
		return true
	}
	return false
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
