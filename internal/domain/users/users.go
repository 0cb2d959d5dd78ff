// Package users manages operator accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"gestao/internal/domain/auth"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("a user with this e-mail already exists")
	ErrInvalid   = errors.New("invalid user")
)

type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Role           string     `json:"role"`
	Permissions    []string   `json:"permissions"`
	AccessValidity *time.Time `json:"accessValidity,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type NewUser struct {
	User
	Password string
}

type StoreAPI interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	Insert(ctx context.Context, u User, passwordHash string) error
	Update(ctx context.Context, u User) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	CredentialsByEmail(ctx context.Context, email string) (auth.Credentials, error)
}

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.store.Get(ctx, id)
}

// Create hashes the password and stores the account. A taken e-mail is
// rejected with ErrDuplicate.
func (s *Service) Create(ctx context.Context, in NewUser) (User, error) {
	u := normalize(in.User)
	if err := validate(u); err != nil {
		return User{}, err
	}
	if len(in.Password) < 8 {
		return User{}, fmt.Errorf("%w: password must have at least 8 characters", ErrInvalid)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.now().UTC()
	if err := s.store.Insert(ctx, u, hash); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, id string, changes User) (User, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	u := normalize(changes)
	if err := validate(u); err != nil {
		return User{}, err
	}
	u.ID = current.ID
	u.CreatedAt = current.CreatedAt
	if err := s.store.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must have at least 8 characters", ErrInvalid)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.store.SetPassword(ctx, id, hash)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// CredentialsByEmail lets the auth service verify logins.
func (s *Service) CredentialsByEmail(ctx context.Context, email string) (auth.Credentials, error) {
	return s.store.CredentialsByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func normalize(u User) User {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		u.Username, _, _ = strings.Cut(u.Email, "@")
	}
	u.Role = strings.ToUpper(strings.TrimSpace(u.Role))
	if u.Role == "" {
		u.Role = auth.RoleOperator
	}
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	return u
}

func validate(u User) error {
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: email is not valid", ErrInvalid)
	}
	if !auth.ValidRole(u.Role) {
		return fmt.Errorf("%w: unknown role %s", ErrInvalid, u.Role)
	}
	return nil
}
