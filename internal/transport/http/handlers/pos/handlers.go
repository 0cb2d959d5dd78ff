package poshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gestao/internal/domain/audit"
	"gestao/internal/domain/auth"
	"gestao/internal/domain/pos"
	"gestao/internal/domain/series"
	"gestao/internal/transport/http/api"
	"gestao/internal/transport/http/middleware"
	"gestao/internal/transport/http/shared"
)

type Finalizer interface {
	Finalize(ctx context.Context, cart *pos.Cart, co pos.Checkout) (pos.Invoice, error)
	Invoice(ctx context.Context, id string) (pos.Invoice, error)
	Invoices(ctx context.Context, limit int) ([]pos.Invoice, error)
}

type Handler struct {
	Finalizer Finalizer
	VATRate   decimal.Decimal
	Audit     audit.Recorder
	Gate      middleware.Gate
}

func NewHandler(finalizer Finalizer, vatRate decimal.Decimal, recorder audit.Recorder, gate middleware.Gate) *Handler {
	return &Handler{Finalizer: finalizer, VATRate: vatRate, Audit: recorder, Gate: gate}
}

type linePayload struct {
	ProductID   string          `json:"productId" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
}

type cartPayload struct {
	Items          []linePayload   `json:"items" validate:"required,min=1,dive"`
	GlobalDiscount decimal.Decimal `json:"globalDiscount"`
	Received       decimal.Decimal `json:"received"`
}

type checkoutPayload struct {
	cartPayload
	SeriesID       string     `json:"seriesId" validate:"required"`
	Client         pos.Client `json:"client"`
	PaymentMethod  string     `json:"paymentMethod" validate:"omitempty,oneof=CASH MULTICAIXA TRANSFER"`
	CashRegisterID string     `json:"cashRegisterId"`
	Notes          string     `json:"notes" validate:"max=500"`
}

type quote struct {
	Items          []pos.Item      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	GlobalDiscount decimal.Decimal `json:"globalDiscount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	NetAmount      decimal.Decimal `json:"netAmount"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Change         decimal.Decimal `json:"change"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pos", func(r chi.Router) {
		r.With(h.Gate.Require(auth.PermPOSSell)).Post("/quote", h.handleQuote)
		r.With(h.Gate.Require(auth.PermPOSSell)).Post("/checkout", h.handleCheckout)
		r.With(h.Gate.Require(auth.PermPOSSell)).Get("/invoices", h.handleListInvoices)
		r.With(h.Gate.Require(auth.PermPOSSell)).Get("/invoices/{invoiceID}", h.handleGetInvoice)
	})
}

func (h *Handler) buildCart(payload cartPayload) (*pos.Cart, error) {
	cart := pos.NewCart(h.VATRate)
	for _, line := range payload.Items {
		qty := line.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		product := pos.Product{ID: line.ProductID, Name: line.Description, Price: line.UnitPrice}
		if _, err := cart.AddLine(product, qty, line.Discount); err != nil {
			return nil, err
		}
	}
	if err := cart.SetGlobalDiscount(payload.GlobalDiscount); err != nil {
		return nil, err
	}
	return cart, nil
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload cartPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	cart, err := h.buildCart(payload)
	if err != nil {
		writeError(w, err, reqID, "pos_quote_failed", "failed to price cart")
		return
	}
	api.Success(w, quote{
		Items:          cart.Items(),
		Subtotal:       cart.Subtotal(),
		GlobalDiscount: cart.GlobalDiscount(),
		DiscountAmount: cart.DiscountAmount(),
		Total:          cart.Total(),
		NetAmount:      cart.NetAmount(),
		TaxRate:        cart.VATRate(),
		TaxAmount:      cart.TaxAmount(),
		Change:         cart.Change(payload.Received),
	}, reqID)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload checkoutPayload
	if !shared.Decode(w, r, &payload, reqID) {
		return
	}
	cart, err := h.buildCart(payload.cartPayload)
	if err != nil {
		writeError(w, err, reqID, "pos_checkout_failed", "failed to finalize sale")
		return
	}
	user, _ := middleware.GetUser(r.Context())
	invoice, err := h.Finalizer.Finalize(r.Context(), cart, pos.Checkout{
		SeriesID:       payload.SeriesID,
		Client:         payload.Client,
		PaymentMethod:  pos.PaymentMethod(payload.PaymentMethod),
		Received:       payload.Received,
		CashRegisterID: payload.CashRegisterID,
		OperatorID:     user.UserID,
		OperatorName:   user.Name,
		Notes:          payload.Notes,
	})
	if err != nil {
		writeError(w, err, reqID, "pos_checkout_failed", "failed to finalize sale")
		return
	}
	shared.Record(r, h.Audit, "pos.checkout", "invoice", invoice.ID, nil, map[string]any{"number": invoice.Number, "total": invoice.Total})
	api.Created(w, invoice, reqID)
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	invoices, err := h.Finalizer.Invoices(r.Context(), limit)
	if err != nil {
		writeError(w, err, reqID, "invoice_list_failed", "failed to list invoices")
		return
	}
	api.Success(w, invoices, reqID)
}

func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	invoice, err := h.Finalizer.Invoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeError(w, err, reqID, "invoice_get_failed", "failed to load invoice")
		return
	}
	api.Success(w, invoice, reqID)
}

func writeError(w http.ResponseWriter, err error, reqID, code, message string) {
	switch {
	case errors.Is(err, pos.ErrInvalidDiscount), errors.Is(err, pos.ErrInvalidPrice), errors.Is(err, pos.ErrInvalidQuantity),
		errors.Is(err, pos.ErrEmptyCart), errors.Is(err, pos.ErrSeriesRequired), errors.Is(err, pos.ErrInvalidPayment),
		errors.Is(err, series.ErrInvalid):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, pos.ErrInsufficientPayment):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_payment", err.Error(), reqID)
	case errors.Is(err, pos.ErrInvoiceNotFound):
		api.Fail(w, http.StatusNotFound, "invoice_not_found", err.Error(), reqID)
	case errors.Is(err, series.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "series_not_found", err.Error(), reqID)
	case errors.Is(err, series.ErrSeriesInactive):
		api.Fail(w, http.StatusConflict, "series_inactive", err.Error(), reqID)
	case errors.Is(err, series.ErrUserNotAllowed):
		api.Fail(w, http.StatusForbidden, "series_forbidden", err.Error(), reqID)
	default:
		slog.Error(message, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}
