package employeeshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/employees"
	"gestao/internal/platform/fallback"
	"gestao/internal/transport/http/middleware"
)

type fakeService struct {
	items   map[string]employees.Employee
	outcome fallback.Outcome
}

func (f *fakeService) List(context.Context, employees.Filter) ([]employees.Employee, fallback.Outcome, error) {
	out := make([]employees.Employee, 0, len(f.items))
	for _, e := range f.items {
		out = append(out, e)
	}
	return out, f.outcome, nil
}

func (f *fakeService) Get(_ context.Context, id string) (employees.Employee, error) {
	e, ok := f.items[id]
	if !ok {
		return employees.Employee{}, employees.ErrNotFound
	}
	return e, nil
}

func (f *fakeService) Create(_ context.Context, e employees.Employee) (employees.Employee, fallback.Outcome, error) {
	if e.Status == "" {
		e.Status = employees.StatusActive
	}
	if err := employees.Validate(e); err != nil {
		return employees.Employee{}, "", err
	}
	e.ID = "emp-new"
	f.items[e.ID] = e
	return e, f.outcome, nil
}

func (f *fakeService) Update(_ context.Context, id string, e employees.Employee) (employees.Employee, fallback.Outcome, error) {
	e.ID = id
	f.items[id] = e
	return e, f.outcome, nil
}

func (f *fakeService) Terminate(_ context.Context, id string, date time.Time) (employees.Employee, fallback.Outcome, error) {
	e, ok := f.items[id]
	if !ok {
		return employees.Employee{}, "", employees.ErrNotFound
	}
	if e.Terminated() {
		return employees.Employee{}, "", employees.ErrAlreadyTerminated
	}
	e.Status = employees.StatusTerminated
	e.TerminationDate = &date
	f.items[id] = e
	return e, f.outcome, nil
}

func serve(svc *fakeService, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(svc, nil, middleware.Gate{}).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestCreateOfflineWarns(t *testing.T) {
	svc := &fakeService{items: map[string]employees.Employee{}, outcome: fallback.SyncLocal}
	rec := serve(svc, http.MethodPost, "/employees/", `{"name":"Ana Silva","nif":"004567891LA041","baseSalary":"100000"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"warning"`)
}

func TestCreateOnlineHasNoWarning(t *testing.T) {
	svc := &fakeService{items: map[string]employees.Employee{}, outcome: fallback.SyncRemote}
	rec := serve(svc, http.MethodPost, "/employees/", `{"name":"Ana Silva","nif":"004567891LA041","baseSalary":"100000"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), `"warning"`)
}

func TestTerminateTwiceConflicts(t *testing.T) {
	svc := &fakeService{items: map[string]employees.Employee{"emp-1": {ID: "emp-1", Name: "Ana", Status: employees.StatusActive}}}
	rec := serve(svc, http.MethodPost, "/employees/emp-1/terminate", `{"date":"2026-03-31"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(svc, http.MethodPost, "/employees/emp-1/terminate", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetMissingEmployee(t *testing.T) {
	rec := serve(&fakeService{items: map[string]employees.Employee{}}, http.MethodGet, "/employees/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRejectsInvalidEmployee(t *testing.T) {
	svc := &fakeService{items: map[string]employees.Employee{}}
	rec := serve(svc, http.MethodPost, "/employees/", `{"name":"Ana Silva","baseSalary":"100000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nif is required")
	assert.Empty(t, svc.items)
}
