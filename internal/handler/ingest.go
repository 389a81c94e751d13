package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/courierwatch/courier-tracker/internal/audit"
	"github.com/courierwatch/courier-tracker/internal/dashboard"
	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/model"
)

type ObservationQueue interface {
	Enqueue(batch []model.Observation) error
}

type IngestHandler struct {
	queue ObservationQueue
}

func NewIngestHandler(queue ObservationQueue) *IngestHandler {
	return &IngestHandler{queue: queue}
}

type ingestRequest struct {
	Cards        []string           `json:"cards"`
	Observations []observationInput `json:"observations"`
}

type observationInput struct {
	CourierName      string `json:"courierName"`
	RemainingMinutes *int   `json:"remainingMinutes"`
}

type ingestResponse struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

// POST /v1/observations
//
// Cards are parsed first, then structured observations, and the batch is
// queued in that order for the poll loop.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, apperrors.PayloadTooLarge(maxErr.Limit))
			return
		}
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	if len(req.Cards) == 0 && len(req.Observations) == 0 {
		writeError(w, apperrors.MissingRequired("cards or observations"))
		return
	}

	batch, skipped := dashboard.ParseCards(req.Cards)
	for _, in := range req.Observations {
		name := strings.TrimSpace(in.CourierName)
		if name == "" || (in.RemainingMinutes != nil && *in.RemainingMinutes < 0) {
			skipped++
			continue
		}
		batch = append(batch, model.Observation{
			CourierName:      name,
			RemainingMinutes: in.RemainingMinutes,
		})
	}

	if len(batch) > 0 {
		if err := h.queue.Enqueue(batch); err != nil {
			log.Warn().Err(err).Int("observations", len(batch)).Msg("ingest batch rejected")
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventIngestRejected,
				Source:  "ingest",
				Details: map[string]interface{}{"observations": len(batch)},
			})
			writeError(w, err)
			return
		}
	}

	log.Debug().Int("accepted", len(batch)).Int("skipped", skipped).Msg("ingest batch queued")
	writeJSON(w, http.StatusAccepted, ingestResponse{Accepted: len(batch), Skipped: skipped})
}
