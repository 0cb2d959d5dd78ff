package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/auth"
)

type memStore struct {
	users  map[string]User
	hashes map[string]string
}

func newMemStore() *memStore {
	return &memStore{users: map[string]User{}, hashes: map[string]string{}}
}

func (m *memStore) List(context.Context) ([]User, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memStore) Insert(_ context.Context, u User, hash string) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = u
	m.hashes[u.ID] = hash
	return nil
}

func (m *memStore) Update(_ context.Context, u User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *memStore) SetPassword(_ context.Context, id, hash string) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	m.hashes[id] = hash
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *memStore) CredentialsByEmail(_ context.Context, email string) (auth.Credentials, error) {
	for _, u := range m.users {
		if u.Email == email {
			return auth.Credentials{UserID: u.ID, Name: u.Name, Role: u.Role, Permissions: u.Permissions, PasswordHash: m.hashes[u.ID]}, nil
		}
	}
	return auth.Credentials{}, ErrNotFound
}

func TestCreateHashesPasswordAndDefaultsRole(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	u, err := svc.Create(context.Background(), NewUser{
		User:     User{Name: "Joana Caixa", Email: " Joana@Loja.AO "},
		Password: "caixa-1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "joana@loja.ao", u.Email)
	assert.Equal(t, "joana", u.Username)
	assert.Equal(t, auth.RoleOperator, u.Role)
	require.NotEqual(t, "caixa-1234", store.hashes[u.ID])
	require.NoError(t, auth.CheckPassword(store.hashes[u.ID], "caixa-1234"))

	login := auth.NewService(svc, "secret", time.Hour)
	session, err := login.Login(context.Background(), "JOANA@loja.ao", "caixa-1234")
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.UserID)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, NewUser{User: User{Name: "A", Email: "a@loja.ao"}, Password: "password-1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, NewUser{User: User{Name: "B", Email: "A@loja.ao"}, Password: "password-2"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	cases := []NewUser{
		{User: User{Email: "a@loja.ao"}, Password: "password-1"},
		{User: User{Name: "A", Email: "not-an-email"}, Password: "password-1"},
		{User: User{Name: "A", Email: "a@loja.ao", Role: "ROOT"}, Password: "password-1"},
		{User: User{Name: "A", Email: "a@loja.ao"}, Password: "short"},
	}
	for _, c := range cases {
		_, err := svc.Create(ctx, c)
		require.ErrorIs(t, err, ErrInvalid)
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	u, err := svc.Create(ctx, NewUser{User: User{Name: "A", Email: "a@loja.ao"}, Password: "password-1"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, u.ID, User{Name: "A. Silva", Email: "a@loja.ao", Role: "hr"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, updated.ID)
	assert.Equal(t, u.CreatedAt, updated.CreatedAt)
	assert.Equal(t, auth.RoleHR, updated.Role)

	_, err = svc.Update(ctx, "missing", User{Name: "x", Email: "x@loja.ao"})
	require.ErrorIs(t, err, ErrNotFound)
}
