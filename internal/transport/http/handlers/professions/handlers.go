package professionshandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/professions"
	"gestao/internal/platform/fallback"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context) ([]professions.Profession, fallback.Outcome, error)
	Get(ctx context.Context, id string) (professions.Profession, error)
	Create(ctx context.Context, p professions.Profession, actorID string) (professions.Profession, fallback.Outcome, error)
	Update(ctx context.Context, id string, changes professions.Profession) (professions.Profession, fallback.Outcome, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Gate    middleware.Gate
}

func NewHandler(service Service, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Audit: recorder, Gate: gate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/professions", func(r chi.Router) {
		r.With(h.Gate.Require(auth.PermEmployeesRead)).Get("/", h.handleList)
		r.With(h.Gate.Require(auth.PermProfessionsWrite)).Post("/", h.handleCreate)
		r.With(h.Gate.Require(auth.PermEmployeesRead)).Get("/{professionID}", h.handleGet)
		r.With(h.Gate.Require(auth.PermProfessionsWrite)).Put("/{professionID}", h.handleUpdate)
		r.With(h.Gate.Require(auth.PermProfessionsWrite)).Delete("/{professionID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, outcome, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err, reqID, "profession_list_failed", "failed to list professions")
		return
	}
	shared.WriteOutcome(w, http.StatusOK, items, outcome, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "professionID"))
	if err != nil {
		writeError(w, err, reqID, "profession_get_failed", "failed to load profession")
		return
	}
	api.Success(w, p, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload professions.Profession
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	created, outcome, err := h.Service.Create(r.Context(), payload, middleware.ActorID(r.Context()))
	if err != nil {
		writeError(w, err, reqID, "profession_create_failed", "failed to create profession")
		return
	}
	shared.Record(r, h.Audit, "profession.create", "profession", created.ID, nil, created)
	shared.WriteOutcome(w, http.StatusCreated, created, outcome, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload professions.Profession
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	id := chi.URLParam(r, "professionID")
	updated, outcome, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err, reqID, "profession_update_failed", "failed to update profession")
		return
	}
	shared.Record(r, h.Audit, "profession.update", "profession", id, nil, updated)
	shared.WriteOutcome(w, http.StatusOK, updated, outcome, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "professionID")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, err, reqID, "profession_delete_failed", "failed to delete profession")
		return
	}
	shared.Record(r, h.Audit, "profession.delete", "profession", id, nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, professions.ErrInvalid):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, professions.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "profession_not_found", err.Error(), reqID)
	case errors.Is(err, professions.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "profession_duplicate", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
