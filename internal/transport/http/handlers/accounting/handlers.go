package accountinghandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/accounting"
	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/period"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	Accounts() accounting.Accounts
	Preview(ctx context.Context, mode accounting.Mode, p period.Period) ([]accounting.Entry, error)
	Classify(ctx context.Context, mode accounting.Mode, p period.Period, actorID string) (accounting.Result, error)
	Entries(ctx context.Context, mode accounting.Mode, p period.Period) ([]accounting.Entry, error)
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Gate    middleware.Gate
}

func NewHandler(service Service, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Audit: recorder, Gate: gate}
}

type classifyPayload struct {
	Mode  string `json:"mode" validate:"required,oneof=SALARY_PROC SALARY_PAY"`
	Year  int    `json:"year" validate:"gte=2000,lte=2100"`
	Month int    `json:"month" validate:"gte=1,lte=12"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounting", func(r chi.Router) {
		r.Use(h.Gate.Require(auth.PermAccountingRun))
		r.Get("/accounts", h.handleAccounts)
		r.Get("/classification", h.handlePreview)
		r.Post("/classification", h.handleClassify)
		r.Get("/entries", h.handleEntries)
	})
}

func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Service.Accounts(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := shared.PeriodFromQuery(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	mode := accounting.Mode(strings.ToUpper(r.URL.Query().Get("mode")))
	entries, err := h.Service.Preview(r.Context(), mode, p)
	if err != nil {
		writeError(w, err, reqID, "classification_failed", "failed to build journal entries")
		return
	}
	api.Success(w, entries, reqID)
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload classifyPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	p := period.Period{Year: payload.Year, Month: payload.Month}
	result, err := h.Service.Classify(r.Context(), accounting.Mode(payload.Mode), p, middleware.ActorID(r.Context()))
	if err != nil {
		writeError(w, err, reqID, "classification_failed", "failed to post journal entries")
		return
	}
	shared.Record(r, h.Audit, "accounting.classify", "journal", payload.Mode+" "+p.String(), nil, map[string]any{"posted": result.Posted})
	api.Success(w, result, reqID)
}

func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := shared.PeriodFromQuery(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	mode := accounting.Mode(strings.ToUpper(r.URL.Query().Get("mode")))
	entries, err := h.Service.Entries(r.Context(), mode, p)
	if err != nil {
		writeError(w, err, reqID, "journal_list_failed", "failed to list journal entries")
		return
	}
	api.Success(w, entries, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, accounting.ErrInvalidMode), errors.Is(err, period.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, accounting.ErrUnbalancedEntry):
		api.Fail(w, http.StatusUnprocessableEntity, "unbalanced_entry", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
