package employees

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/period"
	cryptoutil "gestao/internal/platform/crypto"
	"gestao/internal/platform/fallback"
)

type memRepo struct {
	items   map[string]Employee
	outcome fallback.Outcome
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]Employee{}, outcome: fallback.SyncRemote}
}

func (m *memRepo) List(context.Context) ([]Employee, fallback.Outcome, error) {
	out := make([]Employee, 0, len(m.items))
	for _, e := range m.items {
		out = append(out, e)
	}
	return out, m.outcome, nil
}

func (m *memRepo) Get(_ context.Context, id string) (Employee, fallback.Outcome, error) {
	e, ok := m.items[id]
	if !ok {
		return Employee{}, m.outcome, ErrNotFound
	}
	return e, m.outcome, nil
}

func (m *memRepo) Upsert(_ context.Context, e Employee) (Employee, fallback.Outcome, error) {
	m.items[e.ID] = e
	return e, m.outcome, nil
}

func sampleEmployee() Employee {
	return Employee{
		Name:       "Ana Domingos",
		NIF:        "004512345LA041",
		IBAN:       "AO06004000001234567890123",
		Department: "Loja",
		BaseSalary: decimal.NewFromInt(100000),
		Complement: decimal.NewFromInt(30000),
	}
}

func TestCreateDefaultsAndSealsSensitiveFields(t *testing.T) {
	repo := newMemRepo()
	crypto, err := cryptoutil.New("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	svc := NewService(repo, crypto)

	created, outcome, err := svc.Create(context.Background(), sampleEmployee())
	require.NoError(t, err)
	require.Equal(t, fallback.SyncRemote, outcome)
	require.NotEmpty(t, created.ID)
	require.Equal(t, StatusActive, created.Status)
	require.Equal(t, "004512345LA041", created.NIF)

	stored := repo.items[created.ID]
	require.True(t, strings.HasPrefix(stored.NIF, "enc:"))
	require.True(t, strings.HasPrefix(stored.IBAN, "enc:"))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "AO06004000001234567890123", got.IBAN)
}

func TestCreateReportsLocalOutcome(t *testing.T) {
	repo := newMemRepo()
	repo.outcome = fallback.SyncLocal
	svc := NewService(repo, nil)

	_, outcome, err := svc.Create(context.Background(), sampleEmployee())
	require.NoError(t, err)
	require.Equal(t, fallback.SyncLocal, outcome)
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	tests := []struct {
		name   string
		mutate func(*Employee)
	}{
		{"missing name", func(e *Employee) { e.Name = " " }},
		{"missing nif", func(e *Employee) { e.NIF = "" }},
		{"zero salary", func(e *Employee) { e.BaseSalary = decimal.Zero }},
		{"negative subsidy", func(e *Employee) { e.Subsidies.Food.Amount = decimal.NewFromInt(-1) }},
		{"unknown status", func(e *Employee) { e.Status = "Retired" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := sampleEmployee()
			tc.mutate(&e)
			_, _, err := svc.Create(context.Background(), e)
			require.ErrorIs(t, err, ErrInvalidEmployee)
		})
	}
}

func TestTerminateIsSoft(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, sampleEmployee())
	require.NoError(t, err)

	when := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	terminated, _, err := svc.Terminate(ctx, created.ID, when)
	require.NoError(t, err)
	require.Equal(t, StatusTerminated, terminated.Status)
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *terminated.TerminationDate)
	require.Len(t, repo.items, 1)

	_, _, err = svc.Terminate(ctx, created.ID, when)
	require.ErrorIs(t, err, ErrAlreadyTerminated)

	updated, _, err := svc.Update(ctx, created.ID, sampleEmployee())
	require.NoError(t, err)
	require.Equal(t, StatusTerminated, updated.Status)
}

func TestUpdateCannotTerminate(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()
	created, _, err := svc.Create(ctx, sampleEmployee())
	require.NoError(t, err)

	changes := sampleEmployee()
	changes.Status = StatusTerminated
	_, _, err = svc.Update(ctx, created.ID, changes)
	require.ErrorIs(t, err, ErrInvalidEmployee)
}

func TestListFilters(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()
	a := sampleEmployee()
	b := sampleEmployee()
	b.Name = "Bruno Neto"
	b.Department = "Armazém"
	_, _, err := svc.Create(ctx, a)
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, b)
	require.NoError(t, err)

	list, _, err := svc.List(ctx, Filter{Department: "armazém"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Bruno Neto", list[0].Name)

	list, _, err = svc.List(ctx, Filter{Search: "ana"})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSubsidiesForPeriod(t *testing.T) {
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	subs := Subsidies{
		Family:    Grant{Amount: decimal.NewFromInt(1222)},
		Transport: Grant{Amount: decimal.NewFromInt(15000), ValidFrom: &from, ValidTo: &to},
	}

	march := subs.For(period.Period{Year: 2026, Month: 3})
	require.True(t, march.Transport.IsZero())
	require.True(t, march.Family.Equal(decimal.NewFromInt(1222)))

	may := subs.For(period.Period{Year: 2026, Month: 5})
	require.True(t, may.Transport.Equal(decimal.NewFromInt(15000)))

	july := subs.For(period.Period{Year: 2026, Month: 7})
	require.True(t, july.Transport.IsZero())
}
