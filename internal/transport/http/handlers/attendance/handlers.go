package attendancehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/attendance"
	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/employees"
	"gestao/internal/domain/period"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	ProcessBulk(ctx context.Context, employeeIDs []string, p period.Period) ([]attendance.Record, error)
	RecordDays(ctx context.Context, employeeID string, p period.Period, days map[int]attendance.Status) ([]attendance.Record, error)
	Void(ctx context.Context, employeeIDs []string, p period.Period) (int, error)
	Records(ctx context.Context, employeeID string, p period.Period) ([]attendance.Record, error)
	Effectiveness(ctx context.Context, p period.Period) ([]attendance.EffectivenessRow, error)
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Gate    middleware.Gate
}

func NewHandler(service Service, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Audit: recorder, Gate: gate}
}

type selectionPayload struct {
	EmployeeIDs []string `json:"employeeIds" validate:"required,min=1,dive,required"`
	Year        int      `json:"year" validate:"gte=2000,lte=2100"`
	Month       int      `json:"month" validate:"gte=1,lte=12"`
}

// gridPayload maps day-of-month ("1".."31") to a status name.
type gridPayload struct {
	Year  int               `json:"year" validate:"gte=2000,lte=2100"`
	Month int               `json:"month" validate:"gte=1,lte=12"`
	Days  map[string]string `json:"days" validate:"required,min=1"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(h.Gate.Require(auth.PermAttendanceWrite)).Post("/bulk", h.handleBulk)
		r.With(h.Gate.Require(auth.PermAttendanceWrite)).Post("/void", h.handleVoid)
		r.With(h.Gate.Require(auth.PermEmployeesRead)).Get("/effectiveness", h.handleEffectiveness)
		r.With(h.Gate.Require(auth.PermEmployeesRead)).Get("/employees/{employeeID}", h.handleRecords)
		r.With(h.Gate.Require(auth.PermAttendanceWrite)).Put("/employees/{employeeID}", h.handleGrid)
	})
}

func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload selectionPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	p := period.Period{Year: payload.Year, Month: payload.Month}
	records, err := h.Service.ProcessBulk(r.Context(), payload.EmployeeIDs, p)
	if err != nil {
		writeError(w, err, reqID, "attendance_bulk_failed", "failed to process attendance")
		return
	}
	shared.Record(r, h.Audit, "attendance.bulk", "attendance", p.String(), nil, map[string]any{"employeeIds": payload.EmployeeIDs, "created": len(records)})
	api.Created(w, records, reqID)
}

func (h *Handler) handleGrid(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload gridPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	days := make(map[int]attendance.Status, len(payload.Days))
	var issues []shared.ValidationIssue
	for key, status := range payload.Days {
		day, err := strconv.Atoi(key)
		if err != nil {
			issues = append(issues, shared.ValidationIssue{Field: "days." + key, Reason: "must be a day of the month"})
			continue
		}
		days[day] = attendance.Status(status)
	}
	if len(issues) > 0 {
		shared.FailValidation(w, reqID, issues)
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	p := period.Period{Year: payload.Year, Month: payload.Month}
	records, err := h.Service.RecordDays(r.Context(), employeeID, p, days)
	if err != nil {
		writeError(w, err, reqID, "attendance_grid_failed", "failed to record attendance")
		return
	}
	shared.Record(r, h.Audit, "attendance.grid", "employee", employeeID, nil, records)
	api.Success(w, records, reqID)
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload selectionPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	p := period.Period{Year: payload.Year, Month: payload.Month}
	voided, err := h.Service.Void(r.Context(), payload.EmployeeIDs, p)
	if err != nil {
		writeError(w, err, reqID, "attendance_void_failed", "failed to void attendance")
		return
	}
	shared.Record(r, h.Audit, "attendance.void", "attendance", p.String(), nil, map[string]any{"employeeIds": payload.EmployeeIDs, "voided": voided})
	api.Success(w, map[string]any{"voided": voided}, reqID)
}

func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := shared.PeriodFromQuery(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	records, err := h.Service.Records(r.Context(), chi.URLParam(r, "employeeID"), p)
	if err != nil {
		writeError(w, err, reqID, "attendance_list_failed", "failed to list attendance")
		return
	}
	api.Success(w, records, reqID)
}

func (h *Handler) handleEffectiveness(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := shared.PeriodFromQuery(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	rows, err := h.Service.Effectiveness(r.Context(), p)
	if err != nil {
		writeError(w, err, reqID, "effectiveness_failed", "failed to build effectiveness map")
		return
	}
	api.Success(w, rows, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, period.ErrInvalidPeriod), errors.Is(err, attendance.ErrUnknownStatus), errors.Is(err, attendance.ErrNoEmployees):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", err.Error(), reqID)
	case errors.Is(err, attendance.ErrEmployeeTerminated):
		api.Fail(w, http.StatusUnprocessableEntity, "employee_terminated", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
