package settingshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/settings"
	"gestao/internal/platform/fallback"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	Banks(ctx context.Context) ([]settings.Bank, fallback.Outcome, error)
	SaveBank(ctx context.Context, b settings.Bank) (settings.Bank, fallback.Outcome, error)
	DeleteBank(ctx context.Context, id string) error
	Metrics(ctx context.Context) ([]settings.Metric, fallback.Outcome, error)
	SaveMetric(ctx context.Context, m settings.Metric) (settings.Metric, fallback.Outcome, error)
	DeleteMetric(ctx context.Context, id string) error
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Gate    middleware.Gate
}

func NewHandler(service Service, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Audit: recorder, Gate: gate}
}

type bankPayload struct {
	Code          string `json:"sigla" validate:"required,max=16"`
	Name          string `json:"nome" validate:"max=120"`
	AccountNumber string `json:"accountNumber" validate:"max=40"`
	NIB           string `json:"nib" validate:"max=40"`
	IBAN          string `json:"iban" validate:"required,max=42"`
	SWIFT         string `json:"swift" validate:"omitempty,min=8,max=11"`
}

type metricPayload struct {
	Code string `json:"sigla" validate:"required,max=16"`
	Name string `json:"nome" validate:"required,max=80"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/banks", h.handleListBanks)
		r.With(h.Gate.Require(auth.PermSettingsWrite)).Post("/banks", h.handleCreateBank)
		r.With(h.Gate.Require(auth.PermSettingsWrite)).Delete("/banks/{bankID}", h.handleDeleteBank)
		r.Get("/metrics", h.handleListMetrics)
		r.With(h.Gate.Require(auth.PermSettingsWrite)).Post("/metrics", h.handleCreateMetric)
		r.With(h.Gate.Require(auth.PermSettingsWrite)).Delete("/metrics/{metricID}", h.handleDeleteMetric)
	})
}

func (h *Handler) handleListBanks(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, outcome, err := h.Service.Banks(r.Context())
	if err != nil {
		writeError(w, err, reqID, "bank_list_failed", "failed to list banks")
		return
	}
	shared.WriteOutcome(w, http.StatusOK, items, outcome, reqID)
}

func (h *Handler) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload bankPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	created, outcome, err := h.Service.SaveBank(r.Context(), settings.Bank{
		Code:          payload.Code,
		Name:          payload.Name,
		AccountNumber: payload.AccountNumber,
		NIB:           payload.NIB,
		IBAN:          payload.IBAN,
		SWIFT:         payload.SWIFT,
	})
	if err != nil {
		writeError(w, err, reqID, "bank_create_failed", "failed to register bank")
		return
	}
	shared.Record(r, h.Audit, "bank.create", "bank", created.ID, nil, created)
	shared.WriteOutcome(w, http.StatusCreated, created, outcome, reqID)
}

func (h *Handler) handleDeleteBank(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "bankID")
	if err := h.Service.DeleteBank(r.Context(), id); err != nil {
		writeError(w, err, reqID, "bank_delete_failed", "failed to delete bank")
		return
	}
	shared.Record(r, h.Audit, "bank.delete", "bank", id, nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, outcome, err := h.Service.Metrics(r.Context())
	if err != nil {
		writeError(w, err, reqID, "metric_list_failed", "failed to list metrics")
		return
	}
	shared.WriteOutcome(w, http.StatusOK, items, outcome, reqID)
}

func (h *Handler) handleCreateMetric(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload metricPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	created, outcome, err := h.Service.SaveMetric(r.Context(), settings.Metric{Code: payload.Code, Name: payload.Name})
	if err != nil {
		writeError(w, err, reqID, "metric_create_failed", "failed to register metric")
		return
	}
	shared.Record(r, h.Audit, "metric.create", "metric", created.ID, nil, created)
	shared.WriteOutcome(w, http.StatusCreated, created, outcome, reqID)
}

func (h *Handler) handleDeleteMetric(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "metricID")
	if err := h.Service.DeleteMetric(r.Context(), id); err != nil {
		writeError(w, err, reqID, "metric_delete_failed", "failed to delete metric")
		return
	}
	shared.Record(r, h.Audit, "metric.delete", "metric", id, nil, nil)
	api.Success(w, map[string]string{"id": id}, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, settings.ErrInvalid):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, settings.ErrBankNotFound), errors.Is(err, settings.ErrMetricNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, settings.ErrBankDuplicate), errors.Is(err, settings.ErrMetricDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
