package jobshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/auth"
	"gestao/internal/platform/jobs"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	Runs(ctx context.Context, filter jobs.RunFilter, limit, offset int) ([]jobs.RunRecord, error)
	CountRuns(ctx context.Context, filter jobs.RunFilter) (int, error)
	RunByID(ctx context.Context, id string) (jobs.RunRecord, error)
}

type Handler struct {
	Service Service
	Gate    middleware.Gate
}

func NewHandler(service Service, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Gate: gate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Use(h.Gate.Require(auth.PermAuditRead))
		r.Get("/runs", h.handleListRuns)
		r.Get("/runs/{runID}", h.handleGetRun)
	})
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	filter := jobs.RunFilter{JobType: q.Get("jobType"), Status: q.Get("status")}
	bounds := []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}}
	for _, b := range bounds {
		raw := q.Get(b.name)
		if raw == "" {
			continue
		}
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: b.name, Reason: "must be a date (YYYY-MM-DD) or RFC3339 time"}})
			return
		}
		*b.dst = &parsed
	}

	page := shared.ParsePagination(r, 50, 200)
	total, err := h.Service.CountRuns(r.Context(), filter)
	if err != nil {
		slog.Warn("job run count failed", "err", err)
	}
	runs, err := h.Service.Runs(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Error("job run list failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, reqID)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := h.Service.RunByID(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, jobs.ErrRunNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "job run not found", reqID)
		return
	}
	if err != nil {
		slog.Error("job run lookup failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "job_run_failed", "failed to load job run", reqID)
		return
	}
	api.Success(w, run, reqID)
}
