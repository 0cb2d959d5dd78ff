package serieshandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/series"
	"gestao/internal/platform/fallback"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context) ([]series.Series, fallback.Outcome, error)
	Get(ctx context.Context, id string) (series.Series, error)
	Create(ctx context.Context, in series.Series) (series.Series, fallback.Outcome, error)
	Update(ctx context.Context, id string, changes series.Series) (series.Series, fallback.Outcome, error)
	Deactivate(ctx context.Context, id string) (series.Series, fallback.Outcome, error)
	Delete(ctx context.Context, id string) error
	NextNumber(ctx context.Context, seriesID, docType, userID string) (series.Allocation, error)
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Gate    middleware.Gate
}

func NewHandler(service Service, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Audit: recorder, Gate: gate}
}

type nextPayload struct {
	DocType string `json:"docType" validate:"omitempty,alphanum,max=4"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/series", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(h.Gate.Require(auth.PermSeriesWrite)).Post("/", h.handleCreate)
		r.Get("/{seriesID}", h.handleGet)
		r.With(h.Gate.Require(auth.PermSeriesWrite)).Put("/{seriesID}", h.handleUpdate)
		r.With(h.Gate.Require(auth.PermSeriesWrite)).Post("/{seriesID}/deactivate", h.handleDeactivate)
		r.With(h.Gate.Require(auth.PermSeriesWrite)).Delete("/{seriesID}", h.handleDelete)
		r.With(h.Gate.Require(auth.PermPOSSell)).Post("/{seriesID}/next", h.handleNext)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, outcome, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err, reqID, "series_list_failed", "failed to list series")
		return
	}
	shared.WriteOutcome(w, http.StatusOK, items, outcome, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	item, err := h.Service.Get(r.Context(), chi.URLParam(r, "seriesID"))
	if err != nil {
		writeError(w, err, reqID, "series_get_failed", "failed to load series")
		return
	}
	api.Success(w, item, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload series.Series
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	created, outcome, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err, reqID, "series_create_failed", "failed to create series")
		return
	}
	shared.Record(r, h.Audit, "series.create", "series", created.ID, nil, created)
	shared.WriteOutcome(w, http.StatusCreated, created, outcome, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload series.Series
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	id := chi.URLParam(r, "seriesID")
	updated, outcome, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err, reqID, "series_update_failed", "failed to update series")
		return
	}
	shared.Record(r, h.Audit, "series.update", "series", id, nil, updated)
	shared.WriteOutcome(w, http.StatusOK, updated, outcome, reqID)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "seriesID")
	updated, outcome, err := h.Service.Deactivate(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID, "series_deactivate_failed", "failed to deactivate series")
		return
	}
	shared.Record(r, h.Audit, "series.deactivate", "series", id, nil, updated)
	shared.WriteOutcome(w, http.StatusOK, updated, outcome, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "seriesID")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, err, reqID, "series_delete_failed", "failed to delete series")
		return
	}
	shared.Record(r, h.Audit, "series.delete", "series", id, nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload nextPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	alloc, err := h.Service.NextNumber(r.Context(), chi.URLParam(r, "seriesID"), payload.DocType, middleware.ActorID(r.Context()))
	if err != nil {
		writeError(w, err, reqID, "series_next_failed", "failed to allocate document number")
		return
	}
	api.Success(w, alloc, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, series.ErrInvalid):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, series.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "series_not_found", err.Error(), reqID)
	case errors.Is(err, series.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "series_duplicate", err.Error(), reqID)
	case errors.Is(err, series.ErrSeriesInactive):
		api.Fail(w, http.StatusConflict, "series_inactive", err.Error(), reqID)
	case errors.Is(err, series.ErrUserNotAllowed):
		api.Fail(w, http.StatusForbidden, "series_forbidden", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
