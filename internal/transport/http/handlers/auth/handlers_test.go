package authhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"gestao/internal/domain/auth"
	"gestao/internal/transport/http/middleware"
)

type credentials map[string]auth.Credentials

func (c credentials) CredentialsByEmail(_ context.Context, email string) (auth.Credentials, error) {
	creds, ok := c[email]
	if !ok {
		return auth.Credentials{}, auth.ErrInvalidCredentials
	}
	return creds, nil
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	hash, err := auth.HashPassword("segredo123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	expired := time.Now().AddDate(0, 0, -3)
	users := credentials{
		"ana@empresa.ao": {UserID: "u-1", Name: "Ana", Role: auth.RoleHR, PasswordHash: hash},
		"rui@empresa.ao": {UserID: "u-2", Name: "Rui", Role: auth.RoleOperator, PasswordHash: hash, AccessValidity: &expired},
	}
	r := chi.NewRouter()
	r.Use(middleware.Auth("test-secret"))
	NewHandler(auth.NewService(users, "test-secret", time.Hour), nil).RegisterRoutes(r)
	return r
}

func login(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rec
}

func TestLoginIssuesUsableToken(t *testing.T) {
	h := newRouter(t)
	rec := login(h, `{"email":"ANA@empresa.ao","password":"segredo123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data auth.Session `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Token == "" || env.Data.Role != auth.RoleHR {
		t.Fatalf("unexpected session %+v", env.Data)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+env.Data.Token)
	me := httptest.NewRecorder()
	h.ServeHTTP(me, req)
	if me.Code != http.StatusOK || !strings.Contains(me.Body.String(), auth.PermPayrollRun) {
		t.Fatalf("unexpected /me response %d: %s", me.Code, me.Body.String())
	}
	if strings.Contains(me.Body.String(), auth.PermUsersWrite) {
		t.Fatalf("HR must not manage users: %s", me.Body.String())
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "wrong password", body: `{"email":"ana@empresa.ao","password":"errada"}`, status: http.StatusUnauthorized},
		{name: "unknown email", body: `{"email":"ninguem@empresa.ao","password":"segredo123"}`, status: http.StatusUnauthorized},
		{name: "expired access", body: `{"email":"rui@empresa.ao","password":"segredo123"}`, status: http.StatusForbidden},
		{name: "malformed email", body: `{"email":"ana","password":"segredo123"}`, status: http.StatusBadRequest},
	}
	h := newRouter(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := login(h, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMeRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
