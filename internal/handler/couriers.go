package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/model"
)

// CourierReader is the read side served by the reporting API.
type CourierReader interface {
	GetCourier(ctx context.Context, name string) (*model.Courier, error)
	ListCouriers(ctx context.Context, limit, offset int) ([]model.Courier, error)
	ListSessions(ctx context.Context, limit, offset int) ([]model.Session, error)
	ListCourierSessions(ctx context.Context, name string) ([]model.Session, error)
}

type CourierHandler struct {
	reports CourierReader
}

func NewCourierHandler(reports CourierReader) *CourierHandler {
	return &CourierHandler{reports: reports}
}

func (h *CourierHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/couriers", h.ListCouriers)
	r.Get("/couriers/{name}", h.GetCourier)
	r.Get("/couriers/{name}/sessions", h.ListCourierSessions)
	r.Get("/sessions", h.ListSessions)

	return r
}

// GET /v1/couriers
func (h *CourierHandler) ListCouriers(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	couriers, err := h.reports.ListCouriers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"couriers": couriers,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GET /v1/couriers/{name}
func (h *CourierHandler) GetCourier(w http.ResponseWriter, r *http.Request) {
	name, ok := courierName(w, r)
	if !ok {
		return
	}

	courier, err := h.reports.GetCourier(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	if courier == nil {
		writeError(w, apperrors.NotFound("Courier"))
		return
	}

	writeJSON(w, http.StatusOK, courier)
}

// GET /v1/couriers/{name}/sessions
func (h *CourierHandler) ListCourierSessions(w http.ResponseWriter, r *http.Request) {
	name, ok := courierName(w, r)
	if !ok {
		return
	}

	sessions, err := h.reports.ListCourierSessions(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"courierName": name,
		"sessions":    sessions,
	})
}

// GET /v1/sessions
func (h *CourierHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sessions, err := h.reports.ListSessions(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

func courierName(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		writeError(w, apperrors.MissingRequired("name"))
		return "", false
	}
	return name, true
}
