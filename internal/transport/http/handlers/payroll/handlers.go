package payrollhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/employees"
	"gestao/internal/domain/payroll"
	"gestao/internal/domain/period"
	"gestao/internal/domain/tax"
	"gestao/internal/platform/jobs"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Service interface {
	ProcessSalary(ctx context.Context, employeeID string, p period.Period, adj payroll.ManualAdjustments, actorID string) (payroll.SalarySlip, error)
	DeleteSalary(ctx context.Context, employeeIDs []string, p period.Period) (int, error)
	ListCurrent(ctx context.Context, p period.Period) ([]payroll.SalarySlip, error)
	History(ctx context.Context, employeeID string, p period.Period) ([]payroll.SalarySlip, error)
	SalaryMap(ctx context.Context, p period.Period) (payroll.SalaryMap, error)
	PayslipPDF(ctx context.Context, slipID string) ([]byte, error)
}

type Handler struct {
	Service Service
	Jobs    *jobs.Service
	Audit   audit.Recorder
	Gate    middleware.Gate
}

func NewHandler(service Service, jobsSvc *jobs.Service, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Audit: recorder, Gate: gate}
}

type processPayload struct {
	EmployeeID  string                    `json:"employeeId" validate:"required"`
	Year        int                       `json:"year" validate:"gte=2000,lte=2100"`
	Month       int                       `json:"month" validate:"gte=1,lte=12"`
	Adjustments payroll.ManualAdjustments `json:"adjustments"`
}

type deletePayload struct {
	EmployeeIDs []string `json:"employeeIds" validate:"required,min=1,dive,required"`
	Year        int      `json:"year" validate:"gte=2000,lte=2100"`
	Month       int      `json:"month" validate:"gte=1,lte=12"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/slips", h.handleListSlips)
		r.With(h.Gate.Require(auth.PermPayrollRun)).Post("/slips", h.handleProcess)
		r.With(h.Gate.Require(auth.PermPayrollRun)).Post("/slips/delete", h.handleDelete)
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/slips/{slipID}/pdf", h.handlePayslipPDF)
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/employees/{employeeID}/history", h.handleHistory)
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/salary-map", h.handleSalaryMap)
	})
}

func (h *Handler) handleListSlips(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := shared.PeriodFromQuery(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	slips, err := h.Service.ListCurrent(r.Context(), p)
	if err != nil {
		writeError(w, err, reqID, "payroll_list_failed", "failed to list salary slips")
		return
	}
	api.Success(w, slips, reqID)
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload processPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	p := period.Period{Year: payload.Year, Month: payload.Month}
	slip, err := h.Service.ProcessSalary(r.Context(), payload.EmployeeID, p, payload.Adjustments, middleware.ActorID(r.Context()))
	if err != nil {
		writeError(w, err, reqID, "payroll_process_failed", "failed to process salary")
		return
	}
	shared.Record(r, h.Audit, "payroll.process", "salary_slip", slip.ID, nil, slip)
	api.Created(w, slip, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload deletePayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	p := period.Period{Year: payload.Year, Month: payload.Month}
	voided, err := h.Service.DeleteSalary(r.Context(), payload.EmployeeIDs, p)
	if err != nil {
		writeError(w, err, reqID, "payroll_delete_failed", "failed to delete salaries")
		return
	}
	shared.Record(r, h.Audit, "payroll.delete", "salary_slip", p.String(), nil, map[string]any{"employeeIds": payload.EmployeeIDs, "voided": voided})
	api.Success(w, map[string]any{"voided": voided}, reqID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := shared.PeriodFromQuery(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	slips, err := h.Service.History(r.Context(), chi.URLParam(r, "employeeID"), p)
	if err != nil {
		writeError(w, err, reqID, "payroll_history_failed", "failed to load slip history")
		return
	}
	api.Success(w, slips, reqID)
}

func (h *Handler) handleSalaryMap(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := shared.PeriodFromQuery(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	salaryMap, err := h.Service.SalaryMap(r.Context(), p)
	if err != nil {
		writeError(w, err, reqID, "salary_map_failed", "failed to build salary map")
		return
	}
	if r.URL.Query().Get("format") != "csv" {
		api.Success(w, salaryMap, reqID)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=mapa-inss-%s.csv", p))
	if err := payroll.WriteINSSCSV(w, salaryMap); err != nil {
		slog.Warn("salary map export failed", "period", p.String(), "err", err)
	}
}

func (h *Handler) handlePayslipPDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	slipID := chi.URLParam(r, "slipID")
	result, err := h.Jobs.RunNow(r.Context(), jobs.JobPayslipPDF, func(ctx context.Context) (any, error) {
		return h.Service.PayslipPDF(ctx, slipID)
	})
	if err != nil {
		writeError(w, err, reqID, "payslip_pdf_failed", "failed to render payslip")
		return
	}
	data, _ := result.([]byte)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=recibo-%s.pdf", slipID))
	if _, err := w.Write(data); err != nil {
		slog.Warn("payslip write failed", "slipId", slipID, "err", err)
	}
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, period.ErrInvalidPeriod), errors.Is(err, tax.ErrInvalidInput), errors.Is(err, payroll.ErrNoEmployees):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrSlipNotFound):
		api.Fail(w, http.StatusNotFound, "slip_not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrAttendanceIncomplete):
		api.Fail(w, http.StatusUnprocessableEntity, "attendance_incomplete", err.Error(), reqID)
	case errors.Is(err, payroll.ErrAttendanceMissing):
		api.Fail(w, http.StatusUnprocessableEntity, "attendance_missing", err.Error(), reqID)
	case errors.Is(err, payroll.ErrEmployeeTerminated):
		api.Fail(w, http.StatusUnprocessableEntity, "employee_terminated", err.Error(), reqID)
	case errors.Is(err, payroll.ErrSlipTransferred):
		api.Fail(w, http.StatusConflict, "slip_transferred", err.Error(), reqID)
	case errors.Is(err, payroll.ErrSlipConflict):
		api.Fail(w, http.StatusConflict, "slip_conflict", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
