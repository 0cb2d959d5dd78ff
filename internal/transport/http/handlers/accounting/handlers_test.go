package accountinghandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/accounting"
	"gestao/internal/domain/period"
	"gestao/internal/transport/http/middleware"
)

type fakeService struct {
	classified []string
}

func (f *fakeService) Accounts() accounting.Accounts {
	return accounting.Accounts{SalaryExpense: "72.2", Cash: "45.1"}
}

func (f *fakeService) Preview(_ context.Context, mode accounting.Mode, p period.Period) ([]accounting.Entry, error) {
	if !mode.Valid() {
		return nil, accounting.ErrInvalidMode
	}
	return []accounting.Entry{{Mode: mode, SourceID: "slip-1", Period: p, Status: accounting.StatusPending}}, nil
}

func (f *fakeService) Classify(_ context.Context, mode accounting.Mode, p period.Period, _ string) (accounting.Result, error) {
	f.classified = append(f.classified, string(mode)+" "+p.String())
	return accounting.Result{Posted: 1}, nil
}

func (f *fakeService) Entries(context.Context, accounting.Mode, period.Period) ([]accounting.Entry, error) {
	return []accounting.Entry{}, nil
}

func setup() (http.Handler, *fakeService) {
	svc := &fakeService{}
	r := chi.NewRouter()
	NewHandler(svc, nil, middleware.Gate{}).RegisterRoutes(r)
	return r, svc
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestPreviewReadsModeAndPeriod(t *testing.T) {
	h, _ := setup()
	rec := serve(h, http.MethodGet, "/accounting/classification?mode=salary_proc&period=2026-03", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"mode":"SALARY_PROC"`)
	assert.Contains(t, rec.Body.String(), `"status":"PENDING"`)

	rec = serve(h, http.MethodGet, "/accounting/classification?mode=SALES&period=2026-03", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodGet, "/accounting/classification?mode=SALARY_PAY&period=2026-13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyValidatesPayload(t *testing.T) {
	h, svc := setup()
	rec := serve(h, http.MethodPost, "/accounting/classification", `{"mode":"SALARY_PAY","year":2026,"month":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"SALARY_PAY 2026-03"}, svc.classified)

	rec = serve(h, http.MethodPost, "/accounting/classification", `{"mode":"PURCHASES","year":2026,"month":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "mode")
	assert.Len(t, svc.classified, 1)
}

func TestAccountsListed(t *testing.T) {
	h, _ := setup()
	rec := serve(h, http.MethodGet, "/accounting/accounts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"salaryExpense":"72.2"`)
}
