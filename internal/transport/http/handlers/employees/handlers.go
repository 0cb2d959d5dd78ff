package employeeshandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/employees"
	"gestao/internal/platform/fallback"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, filter employees.Filter) ([]employees.Employee, fallback.Outcome, error)
	Get(ctx context.Context, id string) (employees.Employee, error)
	Create(ctx context.Context, e employees.Employee) (employees.Employee, fallback.Outcome, error)
	Update(ctx context.Context, id string, changes employees.Employee) (employees.Employee, fallback.Outcome, error)
	Terminate(ctx context.Context, id string, date time.Time) (employees.Employee, fallback.Outcome, error)
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Gate    middleware.Gate
}

func NewHandler(service Service, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Audit: recorder, Gate: gate}
}

type terminatePayload struct {
	Date string `json:"date"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(h.Gate.Require(auth.PermEmployeesRead)).Get("/", h.handleList)
		r.With(h.Gate.Require(auth.PermEmployeesWrite)).Post("/", h.handleCreate)
		r.With(h.Gate.Require(auth.PermEmployeesRead)).Get("/{employeeID}", h.handleGet)
		r.With(h.Gate.Require(auth.PermEmployeesWrite)).Put("/{employeeID}", h.handleUpdate)
		r.With(h.Gate.Require(auth.PermEmployeesWrite)).Post("/{employeeID}/terminate", h.handleTerminate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	filter := employees.Filter{
		Status:     employees.Status(q.Get("status")),
		Department: q.Get("department"),
		Search:     q.Get("q"),
	}
	list, outcome, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err, reqID, "employee_list_failed", "failed to list employees")
		return
	}
	shared.WriteOutcome(w, http.StatusOK, list, outcome, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	e, err := h.Service.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, err, reqID, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, e, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employees.Employee
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	created, outcome, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err, reqID, "employee_create_failed", "failed to create employee")
		return
	}
	shared.Record(r, h.Audit, "employee.create", "employee", created.ID, nil, created)
	shared.WriteOutcome(w, http.StatusCreated, created, outcome, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employees.Employee
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	id := chi.URLParam(r, "employeeID")
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID, "employee_update_failed", "failed to update employee")
		return
	}
	updated, outcome, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err, reqID, "employee_update_failed", "failed to update employee")
		return
	}
	shared.Record(r, h.Audit, "employee.update", "employee", id, before, updated)
	shared.WriteOutcome(w, http.StatusOK, updated, outcome, reqID)
}

func (h *Handler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload terminatePayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
			return
		}
	}
	date, err := shared.ParseDate(payload.Date)
	if err != nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "date", Reason: "must be YYYY-MM-DD"}})
		return
	}
	id := chi.URLParam(r, "employeeID")
	terminated, outcome, err := h.Service.Terminate(r.Context(), id, date)
	if err != nil {
		writeError(w, err, reqID, "employee_terminate_failed", "failed to terminate employee")
		return
	}
	shared.Record(r, h.Audit, "employee.terminate", "employee", id, nil, terminated)
	shared.WriteOutcome(w, http.StatusOK, terminated, outcome, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, employees.ErrInvalidEmployee):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", err.Error(), reqID)
	case errors.Is(err, employees.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "employee_duplicate", err.Error(), reqID)
	case errors.Is(err, employees.ErrAlreadyTerminated):
		api.Fail(w, http.StatusConflict, "employee_terminated", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
