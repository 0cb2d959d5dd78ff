package settlementhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/period"
	"gestao/internal/domain/settlement"
	"gestao/internal/platform/jobs"
	"gestao/internal/platform/printing"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

const transferEndpoint = "settlement.transfer"

type Service interface {
	Transfer(ctx context.Context, req settlement.TransferRequest) (settlement.Result, error)
	Registers(ctx context.Context) ([]settlement.Register, error)
	Register(ctx context.Context, id string) (settlement.Register, error)
	CreateRegister(ctx context.Context, name string, opening decimal.Decimal) (settlement.Register, error)
	Deposit(ctx context.Context, id string, amount decimal.Decimal) (settlement.Register, error)
	Order(ctx context.Context, id string) (settlement.TransferOrder, error)
	Orders(ctx context.Context, p period.Period) ([]settlement.TransferOrder, error)
}

// IdempotencyStore replays the stored response of a retried transfer.
type IdempotencyStore interface {
	Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

type Handler struct {
	Service     Service
	Idempotency IdempotencyStore
	Jobs        *jobs.Service
	Audit       audit.Recorder
	Company     printing.Company
	Gate        middleware.Gate
}

func NewHandler(service Service, idem IdempotencyStore, jobsSvc *jobs.Service, recorder audit.Recorder, company printing.Company, gate middleware.Gate) *Handler {
	return &Handler{Service: service, Idempotency: idem, Jobs: jobsSvc, Audit: recorder, Company: company, Gate: gate}
}

type transferPayload struct {
	RegisterID  string   `json:"registerId" validate:"required"`
	EmployeeIDs []string `json:"employeeIds" validate:"required,min=1,dive,required"`
	Year        int      `json:"year" validate:"gte=2000,lte=2100"`
	Month       int      `json:"month" validate:"gte=1,lte=12"`
}

type registerPayload struct {
	Name           string          `json:"name" validate:"required,max=120"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

type depositPayload struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settlement", func(r chi.Router) {
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/registers", h.handleListRegisters)
		r.With(h.Gate.Require(auth.PermRegistersWrite)).Post("/registers", h.handleCreateRegister)
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/registers/{registerID}", h.handleGetRegister)
		r.With(h.Gate.Require(auth.PermRegistersWrite)).Post("/registers/{registerID}/deposits", h.handleDeposit)
		r.With(h.Gate.Require(auth.PermSettlementRun)).Post("/transfers", h.handleTransfer)
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/orders", h.handleListOrders)
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/orders/{orderID}", h.handleGetOrder)
		r.With(h.Gate.Require(auth.PermPayrollRead)).Get("/orders/{orderID}/pdf", h.handleOrderPDF)
	})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request payload too large", reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	var payload transferPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if issues := shared.Validate(&payload); len(issues) > 0 {
		shared.FailValidation(w, reqID, issues)
		return
	}

	actorID := middleware.ActorID(r.Context())
	idempotencyKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), actorID, transferEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), reqID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "err", err)
		}
		if found {
			api.Success(w, json.RawMessage(stored), reqID)
			return
		}
	}

	result, err := h.Service.Transfer(r.Context(), settlement.TransferRequest{
		RegisterID:  payload.RegisterID,
		EmployeeIDs: payload.EmployeeIDs,
		Period:      period.Period{Year: payload.Year, Month: payload.Month},
		ActorID:     actorID,
	})
	if err != nil {
		writeError(w, err, reqID, "transfer_failed", "failed to transfer salaries")
		return
	}
	shared.Record(r, h.Audit, "settlement.transfer", "transfer_order", result.Order.ID,
		map[string]any{"balance": result.BalanceBefore},
		map[string]any{"balance": result.BalanceAfter, "total": result.Order.Total, "employeeIds": result.TransferredIDs})

	if idempotencyKey != "" && h.Idempotency != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			slog.Warn("transfer response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), actorID, transferEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "err", err)
		}
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleListRegisters(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	registers, err := h.Service.Registers(r.Context())
	if err != nil {
		writeError(w, err, reqID, "register_list_failed", "failed to list cash registers")
		return
	}
	api.Success(w, registers, reqID)
}

func (h *Handler) handleGetRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	register, err := h.Service.Register(r.Context(), chi.URLParam(r, "registerID"))
	if err != nil {
		writeError(w, err, reqID, "register_get_failed", "failed to load cash register")
		return
	}
	api.Success(w, register, reqID)
}

func (h *Handler) handleCreateRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload registerPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	register, err := h.Service.CreateRegister(r.Context(), payload.Name, payload.OpeningBalance)
	if err != nil {
		writeError(w, err, reqID, "register_create_failed", "failed to create cash register")
		return
	}
	shared.Record(r, h.Audit, "register.create", "cash_register", register.ID, nil, register)
	api.Created(w, register, reqID)
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload depositPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	id := chi.URLParam(r, "registerID")
	register, err := h.Service.Deposit(r.Context(), id, payload.Amount)
	if err != nil {
		writeError(w, err, reqID, "register_deposit_failed", "failed to deposit")
		return
	}
	shared.Record(r, h.Audit, "register.deposit", "cash_register", id, nil, map[string]any{"amount": payload.Amount, "balance": register.Balance})
	api.Success(w, register, reqID)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	p, err := shared.PeriodFromQuery(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), reqID)
		return
	}
	orders, err := h.Service.Orders(r.Context(), p)
	if err != nil {
		writeError(w, err, reqID, "order_list_failed", "failed to list transfer orders")
		return
	}
	api.Success(w, orders, reqID)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	order, err := h.Service.Order(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err, reqID, "order_get_failed", "failed to load transfer order")
		return
	}
	api.Success(w, order, reqID)
}

func (h *Handler) handleOrderPDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	orderID := chi.URLParam(r, "orderID")
	result, err := h.Jobs.RunNow(r.Context(), jobs.JobTransferOrderPDF, func(ctx context.Context) (any, error) {
		order, err := h.Service.Order(ctx, orderID)
		if err != nil {
			return nil, err
		}
		register, err := h.Service.Register(ctx, order.RegisterID)
		if err != nil {
			return nil, err
		}
		return settlement.RenderOrder(h.Company, order, register, time.Now())
	})
	if err != nil {
		writeError(w, err, reqID, "order_pdf_failed", "failed to render transfer order")
		return
	}
	data, _ := result.([]byte)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=ordem-%s.pdf", orderID))
	if _, err := w.Write(data); err != nil {
		slog.Warn("transfer order write failed", "orderId", orderID, "err", err)
	}
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, period.ErrInvalidPeriod), errors.Is(err, settlement.ErrRegisterRequired), errors.Is(err, settlement.ErrInvalidAmount),
		errors.Is(err, settlement.ErrInvalidRegister):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, settlement.ErrRegisterNotFound):
		api.Fail(w, http.StatusNotFound, "register_not_found", err.Error(), reqID)
	case errors.Is(err, settlement.ErrTransferNotFound):
		api.Fail(w, http.StatusNotFound, "order_not_found", err.Error(), reqID)
	case errors.Is(err, settlement.ErrRegisterClosed):
		api.Fail(w, http.StatusConflict, "register_closed", err.Error(), reqID)
	case errors.Is(err, settlement.ErrSelectionChanged):
		api.Fail(w, http.StatusConflict, "selection_changed", err.Error(), reqID)
	case errors.Is(err, settlement.ErrInsufficientFunds):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error(), reqID)
	case errors.Is(err, settlement.ErrNothingToTransfer):
		api.Fail(w, http.StatusUnprocessableEntity, "nothing_to_transfer", err.Error(), reqID)
	case errors.Is(err, settlement.ErrNonPositiveSlip):
		api.Fail(w, http.StatusUnprocessableEntity, "non_positive_slip", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
