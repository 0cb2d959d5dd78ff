package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("super-secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if err := CheckPassword(hash, "super-secret"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", Name: "Admin", Role: RoleHR, Permissions: []string{PermSeriesWrite}}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.Role != claims.Role || parsed.Name != claims.Name {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
	if !parsed.Can(PermSeriesWrite) || !parsed.Can(PermPayrollRun) || parsed.Can(PermUsersWrite) {
		t.Fatalf("unexpected permissions: %+v", parsed.Permissions)
	}

	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

type staticCredentials map[string]Credentials

func (s staticCredentials) CredentialsByEmail(_ context.Context, email string) (Credentials, error) {
	c, ok := s[email]
	if !ok {
		return Credentials{}, errors.New("no rows")
	}
	return c, nil
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("caixa-123")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	expired := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	users := staticCredentials{
		"op@example.ao":  {UserID: "u1", Name: "Operador", Role: RoleOperator, PasswordHash: hash},
		"old@example.ao": {UserID: "u2", Role: RoleOperator, PasswordHash: hash, AccessValidity: &expired},
	}
	svc := NewService(users, "secret", time.Hour)

	session, err := svc.Login(context.Background(), " OP@example.ao ", "caixa-123")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	claims, err := svc.Parse(session.Token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.UserID != "u1" || !claims.Can(PermPOSSell) {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := svc.Login(context.Background(), "op@example.ao", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.ao", "caixa-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "old@example.ao", "caixa-123"); !errors.Is(err, ErrAccessExpired) {
		t.Fatalf("expected expired access, got %v", err)
	}
}
