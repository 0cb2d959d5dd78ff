package settlementhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/period"
	"gestao/internal/domain/settlement"
	"gestao/internal/platform/jobs"
	"gestao/internal/platform/printing"
	"gestao/internal/transport/http/middleware"
)

type fakeService struct {
	balance   decimal.Decimal
	transfers int
	orders    map[string]settlement.TransferOrder
}

func (f *fakeService) Transfer(_ context.Context, req settlement.TransferRequest) (settlement.Result, error) {
	total := decimal.NewFromInt(35000)
	if f.balance.LessThan(total) {
		return settlement.Result{}, settlement.ErrInsufficientFunds
	}
	f.transfers++
	before := f.balance
	f.balance = f.balance.Sub(total)
	order := settlement.TransferOrder{ID: "order-1", RegisterID: req.RegisterID, Period: req.Period, Total: total}
	f.orders[order.ID] = order
	return settlement.Result{Order: order, BalanceBefore: before, BalanceAfter: f.balance, TransferredIDs: req.EmployeeIDs}, nil
}

func (f *fakeService) Registers(context.Context) ([]settlement.Register, error) { return nil, nil }

func (f *fakeService) Register(_ context.Context, id string) (settlement.Register, error) {
	if id != "reg-1" {
		return settlement.Register{}, settlement.ErrRegisterNotFound
	}
	return settlement.Register{ID: id, Name: "Caixa Principal", Balance: f.balance, Status: settlement.RegisterOpen}, nil
}

func (f *fakeService) CreateRegister(_ context.Context, name string, opening decimal.Decimal) (settlement.Register, error) {
	return settlement.Register{ID: "reg-2", Name: name, Balance: opening}, nil
}

func (f *fakeService) Deposit(_ context.Context, _ string, amount decimal.Decimal) (settlement.Register, error) {
	if !amount.IsPositive() {
		return settlement.Register{}, settlement.ErrInvalidAmount
	}
	f.balance = f.balance.Add(amount)
	return settlement.Register{ID: "reg-1", Balance: f.balance}, nil
}

func (f *fakeService) Order(_ context.Context, id string) (settlement.TransferOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return settlement.TransferOrder{}, settlement.ErrTransferNotFound
	}
	return o, nil
}

func (f *fakeService) Orders(context.Context, period.Period) ([]settlement.TransferOrder, error) {
	return nil, nil
}

type memIdempotency struct {
	entries map[string]struct {
		hash     string
		response json.RawMessage
	}
}

func (m *memIdempotency) Check(_ context.Context, userID, endpoint, key, hash string) (json.RawMessage, bool, error) {
	e, ok := m.entries[userID+endpoint+key]
	if !ok {
		return nil, false, nil
	}
	if e.hash != hash {
		return nil, false, middleware.ErrIdempotencyConflict
	}
	return e.response, true, nil
}

func (m *memIdempotency) Save(_ context.Context, userID, endpoint, key, hash string, response json.RawMessage) error {
	m.entries[userID+endpoint+key] = struct {
		hash     string
		response json.RawMessage
	}{hash, response}
	return nil
}

func setup(balance string) (http.Handler, *fakeService) {
	svc := &fakeService{balance: decimal.RequireFromString(balance), orders: map[string]settlement.TransferOrder{}}
	idem := &memIdempotency{entries: map[string]struct {
		hash     string
		response json.RawMessage
	}{}}
	r := chi.NewRouter()
	NewHandler(svc, idem, jobs.New(nil, 4), nil, printing.Company{Name: "Empresa Demo"}, middleware.Gate{}).RegisterRoutes(r)
	return r, svc
}

func post(h http.Handler, target, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const transferBody = `{"registerId":"reg-1","employeeIds":["emp-a","emp-b","emp-c"],"year":2026,"month":3}`

func TestTransferSucceeds(t *testing.T) {
	h, svc := setup("40000")
	rec := post(h, "/settlement/transfers", transferBody, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, svc.balance.Equal(decimal.NewFromInt(5000)))
	assert.Contains(t, rec.Body.String(), `"balanceAfter":"5000"`)
}

func TestTransferInsufficientFunds(t *testing.T) {
	h, svc := setup("30000")
	rec := post(h, "/settlement/transfers", transferBody, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_funds")
	assert.True(t, svc.balance.Equal(decimal.NewFromInt(30000)))
}

func TestTransferReplayIsIdempotent(t *testing.T) {
	h, svc := setup("80000")
	first := post(h, "/settlement/transfers", transferBody, "key-1")
	require.Equal(t, http.StatusOK, first.Code)
	second := post(h, "/settlement/transfers", transferBody, "key-1")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, svc.transfers)
	assert.Contains(t, second.Body.String(), "order-1")

	other := `{"registerId":"reg-1","employeeIds":["emp-a"],"year":2026,"month":3}`
	conflict := post(h, "/settlement/transfers", other, "key-1")
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, svc.transfers)
}

func TestTransferValidatesPayload(t *testing.T) {
	h, _ := setup("40000")
	rec := post(h, "/settlement/transfers", `{"employeeIds":["emp-a"],"year":2026,"month":3}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "registerId")
}

func TestDepositRejectsNonPositive(t *testing.T) {
	h, _ := setup("0")
	rec := post(h, "/settlement/registers/reg-1/deposits", `{"amount":"-5"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderPDF(t *testing.T) {
	h, _ := setup("40000")
	require.Equal(t, http.StatusOK, post(h, "/settlement/transfers", transferBody, "").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settlement/orders/order-1/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settlement/orders/missing/pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
