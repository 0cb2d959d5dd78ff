package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/auth"
	"gestao/internal/domain/series"
	"gestao/internal/domain/settlement"
	"gestao/internal/domain/users"
	"gestao/internal/platform/config"
	"gestao/internal/platform/fallback"
)

type userStore struct {
	users.StoreAPI
	byEmail map[string]users.User
}

func (s *userStore) Insert(_ context.Context, u users.User, _ string) error {
	s.byEmail[u.Email] = u
	return nil
}

func (s *userStore) CredentialsByEmail(_ context.Context, email string) (auth.Credentials, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return auth.Credentials{}, users.ErrNotFound
	}
	return auth.Credentials{UserID: u.ID, Role: u.Role}, nil
}

type registerStore struct {
	settlement.StoreAPI
	registers []settlement.Register
}

func (s *registerStore) ListRegisters(context.Context) ([]settlement.Register, error) {
	return s.registers, nil
}

func (s *registerStore) CreateRegister(_ context.Context, r settlement.Register) error {
	s.registers = append(s.registers, r)
	return nil
}

type seriesRepo struct {
	series.Repository
	items []series.Series
}

func (r *seriesRepo) List(context.Context) ([]series.Series, fallback.Outcome, error) {
	return r.items, fallback.SyncRemote, nil
}

func (r *seriesRepo) Upsert(_ context.Context, s series.Series) (series.Series, fallback.Outcome, error) {
	r.items = append(r.items, s)
	return s, fallback.SyncRemote, nil
}

func newSeeder() (seeder, *userStore, *registerStore, *seriesRepo) {
	us := &userStore{byEmail: map[string]users.User{}}
	rs := &registerStore{}
	sr := &seriesRepo{}
	s := seeder{
		users:      users.NewService(us),
		settlement: settlement.NewService(rs, nil),
		series:     series.NewService(sr, nil, nil),
		now:        func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
	return s, us, rs, sr
}

func TestSeedCreatesDefaultsOnce(t *testing.T) {
	s, us, rs, sr := newSeeder()
	cfg := config.Config{SeedAdminEmail: "admin@empresa.ao", SeedAdminPassword: "segredo123"}

	require.NoError(t, s.Seed(context.Background(), cfg))
	require.NoError(t, s.Seed(context.Background(), cfg))

	require.Len(t, us.byEmail, 1)
	assert.Equal(t, auth.RoleAdmin, us.byEmail["admin@empresa.ao"].Role)

	require.Len(t, rs.registers, 1)
	assert.Equal(t, seedRegisterName, rs.registers[0].Name)
	assert.True(t, rs.registers[0].Balance.IsZero())

	require.Len(t, sr.items, 1)
	assert.Equal(t, "FR", sr.items[0].Code)
	assert.Equal(t, 2026, sr.items[0].Year)
	assert.True(t, sr.items[0].IsActive)
}

func TestSeedSkipsAdminWithoutCredentials(t *testing.T) {
	s, us, _, _ := newSeeder()
	require.NoError(t, s.Seed(context.Background(), config.Config{}))
	assert.Empty(t, us.byEmail)
}
