package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courierwatch/courier-tracker/internal/config"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	queue interface{ Len() int }
}

func NewHealthHandler(db Pinger, queue interface{ Len() int }) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
	defer cancel()

	status := http.StatusOK
	body := map[string]any{
		"status":    "ok",
		"database":  "ok",
		"timestamp": time.Now().UnixMilli(),
	}

	if err := h.db.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("health check: database ping failed")
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unreachable"
	}

	if h.queue != nil {
		body["queuedBatches"] = h.queue.Len()
	}

	writeJSON(w, status, body)
}
