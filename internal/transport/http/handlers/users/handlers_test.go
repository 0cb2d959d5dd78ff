package usershandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/users"
	"gestao/internal/transport/http/middleware"
)

type fakeService struct {
	byEmail map[string]users.User
}

func (f *fakeService) List(context.Context) ([]users.User, error) { return nil, nil }

func (f *fakeService) Get(_ context.Context, id string) (users.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (f *fakeService) Create(_ context.Context, in users.NewUser) (users.User, error) {
	if len(in.Password) < 8 {
		return users.User{}, users.ErrInvalid
	}
	if _, ok := f.byEmail[in.Email]; ok {
		return users.User{}, users.ErrDuplicate
	}
	in.ID = "u-" + in.Email
	f.byEmail[in.Email] = in.User
	return in.User, nil
}

func (f *fakeService) Update(_ context.Context, id string, changes users.User) (users.User, error) {
	changes.ID = id
	return changes, nil
}

func (f *fakeService) ChangePassword(context.Context, string, string) error { return nil }

func (f *fakeService) Delete(context.Context, string) error { return nil }

func serve(svc *fakeService, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(svc, nil, middleware.Gate{}).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := &fakeService{byEmail: map[string]users.User{}}
	body := `{"name":"Ana","email":"ana@empresa.ao","role":"HR","password":"segredo123"}`
	rec := serve(svc, http.MethodPost, "/users/", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "segredo123")

	rec = serve(svc, http.MethodPost, "/users/", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPasswordMustBeLongEnough(t *testing.T) {
	svc := &fakeService{byEmail: map[string]users.User{}}
	rec := serve(svc, http.MethodPut, "/users/u-1/password", `{"password":"curta"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")
}

func TestGetUnknownUser(t *testing.T) {
	rec := serve(&fakeService{byEmail: map[string]users.User{}}, http.MethodGet, "/users/u-9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
