package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessExpired      = errors.New("user access has expired")
)

// Credentials is what a login needs to know about a user.
type Credentials struct {
	UserID         string
	Name           string
	Role           string
	Permissions    []string
	PasswordHash   string
	AccessValidity *time.Time
}

type CredentialSource interface {
	CredentialsByEmail(ctx context.Context, email string) (Credentials, error)
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

type Service struct {
	users  CredentialSource
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(users CredentialSource, secret string, ttl time.Duration) *Service {
	return &Service{users: users, secret: secret, ttl: ttl, now: time.Now}
}

// Login verifies the password and issues a signed token. Unknown e-mails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	creds, err := s.users.CredentialsByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if creds.AccessValidity != nil && s.now().After(creds.AccessValidity.Add(24*time.Hour)) {
		return Session{}, ErrAccessExpired
	}
	token, err := GenerateToken(s.secret, Claims{
		UserID:      creds.UserID,
		Name:        creds.Name,
		Role:        creds.Role,
		Permissions: creds.Permissions,
	}, s.ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
		UserID:    creds.UserID,
		Name:      creds.Name,
		Role:      creds.Role,
	}, nil
}

func (s *Service) Parse(token string) (*Claims, error) {
	return ParseToken(s.secret, token)
}
