package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gestao/internal/domain/series"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrSeriesRequired      = errors.New("document series is required")
	ErrInsufficientPayment = errors.New("received amount is below the total")
	ErrInvalidPayment      = errors.New("unknown payment method")
	ErrInvoiceNotFound     = errors.New("invoice not found")
)

const (
	DocTypeInvoiceReceipt = "FR"

	DefaultClientName = "Consumidor Final"
	DefaultClientNIF  = "999999999"
)

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentMulticaixa PaymentMethod = "MULTICAIXA"
	PaymentTransfer   PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentMulticaixa, PaymentTransfer:
		return true
	}
	return false
}

type Client struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	NIF     string `json:"nif"`
	Address string `json:"address,omitempty"`
}

type Checkout struct {
	SeriesID       string
	Client         Client
	PaymentMethod  PaymentMethod
	Received       decimal.Decimal
	CashRegisterID string
	OperatorID     string
	OperatorName   string
	Notes          string
}

// Invoice is the immutable record of a finished sale.
type Invoice struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	SeriesID       string          `json:"seriesId"`
	Sequence       int64           `json:"sequence"`
	Number         string          `json:"number"`
	Date           time.Time       `json:"date"`
	Client         Client          `json:"client"`
	Items          []Item          `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	GlobalDiscount decimal.Decimal `json:"globalDiscount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	Received       decimal.Decimal `json:"received"`
	Change         decimal.Decimal `json:"change"`
	Currency       string          `json:"currency"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	CashRegisterID string          `json:"cashRegisterId,omitempty"`
	Operator       string          `json:"operator"`
	Notes          string          `json:"notes,omitempty"`
	Status         string          `json:"status"`
	Certified      bool            `json:"certified"`
	Source         string          `json:"source"`
}

type Numberer interface {
	NextNumber(ctx context.Context, seriesID, docType, userID string) (series.Allocation, error)
}

type InvoiceStore interface {
	Insert(ctx context.Context, inv Invoice) error
	Get(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, limit int) ([]Invoice, error)
}

type Finalizer struct {
	numbers Numberer
	store   InvoiceStore
	now     func() time.Time
}

func NewFinalizer(numbers Numberer, store InvoiceStore) *Finalizer {
	return &Finalizer{numbers: numbers, store: store, now: time.Now}
}

// Finalize issues a certified, paid FR for the cart and clears it. A number
// is allocated only once the cart and payment are known to be valid.
func (f *Finalizer) Finalize(ctx context.Context, cart *Cart, co Checkout) (Invoice, error) {
	if cart == nil || cart.Empty() {
		return Invoice{}, ErrEmptyCart
	}
	if strings.TrimSpace(co.SeriesID) == "" {
		return Invoice{}, ErrSeriesRequired
	}
	if co.PaymentMethod == "" {
		co.PaymentMethod = PaymentCash
	}
	if !co.PaymentMethod.Valid() {
		return Invoice{}, fmt.Errorf("%w: %s", ErrInvalidPayment, co.PaymentMethod)
	}
	total := cart.Total()
	received := co.Received
	if co.PaymentMethod == PaymentCash {
		if received.LessThan(total) {
			return Invoice{}, fmt.Errorf("%w: total %s, received %s", ErrInsufficientPayment, total.StringFixed(2), received.StringFixed(2))
		}
	} else {
		// Card and transfer payments settle the exact total; no change is due.
		received = total
	}

	client := co.Client
	if strings.TrimSpace(client.Name) == "" {
		client.Name = DefaultClientName
	}
	if strings.TrimSpace(client.NIF) == "" {
		client.NIF = DefaultClientNIF
	}

	alloc, err := f.numbers.NextNumber(ctx, co.SeriesID, DocTypeInvoiceReceipt, co.OperatorID)
	if err != nil {
		return Invoice{}, fmt.Errorf("allocate document number: %w", err)
	}
	inv := Invoice{
		ID:             uuid.NewString(),
		Type:           DocTypeInvoiceReceipt,
		SeriesID:       alloc.SeriesID,
		Sequence:       alloc.Sequence,
		Number:         alloc.Number,
		Date:           f.now().UTC(),
		Client:         client,
		Items:          cart.Items(),
		Subtotal:       cart.NetAmount(),
		GlobalDiscount: cart.GlobalDiscount(),
		DiscountAmount: cart.DiscountAmount(),
		TaxRate:        cart.VATRate(),
		TaxAmount:      cart.TaxAmount(),
		Total:          total,
		PaidAmount:     total,
		Received:       received,
		Change:         cart.Change(received),
		Currency:       "AOA",
		PaymentMethod:  co.PaymentMethod,
		CashRegisterID: co.CashRegisterID,
		Operator:       co.OperatorName,
		Notes:          strings.TrimSpace(co.Notes),
		Status:         "PAID",
		Certified:      true,
		Source:         "POS",
	}
	if err := f.store.Insert(ctx, inv); err != nil {
		return Invoice{}, fmt.Errorf("store invoice %s: %w", inv.Number, err)
	}
	cart.Clear()
	return inv, nil
}

func (f *Finalizer) Invoice(ctx context.Context, id string) (Invoice, error) {
	return f.store.Get(ctx, id)
}

func (f *Finalizer) Invoices(ctx context.Context, limit int) ([]Invoice, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return f.store.List(ctx, limit)
}
