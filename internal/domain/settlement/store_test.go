package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/payroll"
	"gestao/internal/domain/tax"
	"gestao/internal/platform/db/dbtest"
)

var storeNow = time.Date(2026, 3, 31, 17, 0, 0, 0, time.UTC)

func storedRegister(t *testing.T, store *Store, balance string) Register {
	t.Helper()
	r := Register{ID: uuid.NewString(), Name: "Caixa " + uuid.NewString()[:6], Balance: d(balance), Status: RegisterOpen, CreatedAt: storeNow}
	require.NoError(t, store.CreateRegister(context.Background(), r))
	return r
}

func storedSlip(t *testing.T, pool *pgxpool.Pool, name, net string) payroll.SalarySlip {
	t.Helper()
	slip := payroll.SalarySlip{
		ID:           uuid.NewString(),
		EmployeeID:   dbtest.InsertEmployee(t, pool, name),
		Period:       march,
		EmployeeName: name,
		Computation:  tax.Breakdown{GrossTotal: d(net), NetTotal: d(net)},
		Status:       payroll.SlipCurrent,
		CreatedAt:    storeNow,
	}
	require.NoError(t, payroll.NewStore(pool).Replace(context.Background(), slip))
	return slip
}

func orderFor(register Register, slips ...payroll.SalarySlip) TransferOrder {
	order := TransferOrder{ID: uuid.NewString(), RegisterID: register.ID, Period: march, CreatedBy: "user-1", CreatedAt: storeNow}
	for _, s := range slips {
		order.Lines = append(order.Lines, TransferLine{SlipID: s.ID, EmployeeID: s.EmployeeID, EmployeeName: s.EmployeeName, Amount: s.NetTotal()})
		order.Total = order.Total.Add(s.NetTotal())
	}
	return order
}

func transferredFlags(t *testing.T, store *Store, slips ...payroll.SalarySlip) map[string]bool {
	t.Helper()
	employeeIDs := make([]string, 0, len(slips))
	for _, s := range slips {
		employeeIDs = append(employeeIDs, s.EmployeeID)
	}
	current, err := store.CurrentSlips(context.Background(), employeeIDs, march)
	require.NoError(t, err)
	out := map[string]bool{}
	for _, s := range current {
		out[s.ID] = s.Transferred
	}
	return out
}

func TestStoreCommitDebitsAndMarksSlips(t *testing.T) {
	pool := dbtest.Open(t)
	store := NewStore(pool)
	ctx := context.Background()
	register := storedRegister(t, store, "1000")
	a := storedSlip(t, pool, "Ana", "300")
	b := storedSlip(t, pool, "Bruno", "400")

	order := orderFor(register, a, b)
	after, err := store.Commit(ctx, order)
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(d("300")))

	stored, err := store.GetRegister(ctx, register.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(d("300")))
	assert.Equal(t, map[string]bool{a.ID: true, b.ID: true}, transferredFlags(t, store, a, b))

	saved, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, saved.Total.Equal(d("700")))
	assert.Len(t, saved.Lines, 2)
}

func TestStoreCommitIsAllOrNothingWhenSelectionChanged(t *testing.T) {
	pool := dbtest.Open(t)
	store := NewStore(pool)
	ctx := context.Background()
	register := storedRegister(t, store, "1000")
	a := storedSlip(t, pool, "Ana", "300")
	b := storedSlip(t, pool, "Bruno", "400")

	_, err := store.Commit(ctx, orderFor(register, a))
	require.NoError(t, err)

	// a was already paid by the first order; b must stay untouched.
	second := orderFor(register, a, b)
	_, err = store.Commit(ctx, second)
	require.ErrorIs(t, err, ErrSelectionChanged)

	stored, err := store.GetRegister(ctx, register.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(d("700")))
	assert.Equal(t, map[string]bool{a.ID: true, b.ID: false}, transferredFlags(t, store, a, b))

	_, err = store.GetOrder(ctx, second.ID)
	require.ErrorIs(t, err, ErrTransferNotFound)
}

func TestStoreCommitRejectsInsufficientFunds(t *testing.T) {
	pool := dbtest.Open(t)
	store := NewStore(pool)
	ctx := context.Background()
	register := storedRegister(t, store, "500")
	a := storedSlip(t, pool, "Ana", "300")
	b := storedSlip(t, pool, "Bruno", "400")

	order := orderFor(register, a, b)
	_, err := store.Commit(ctx, order)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	stored, err := store.GetRegister(ctx, register.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(d("500")))
	assert.Equal(t, map[string]bool{a.ID: false, b.ID: false}, transferredFlags(t, store, a, b))
}

func TestStoreCommitRejectsSupersededSlip(t *testing.T) {
	pool := dbtest.Open(t)
	store := NewStore(pool)
	ctx := context.Background()
	register := storedRegister(t, store, "1000")
	a := storedSlip(t, pool, "Ana", "300")

	reprocessed := a
	reprocessed.ID = uuid.NewString()
	reprocessed.Computation.NetTotal = d("350")
	require.NoError(t, payroll.NewStore(pool).Replace(ctx, reprocessed))

	_, err := store.Commit(ctx, orderFor(register, a))
	require.ErrorIs(t, err, ErrSelectionChanged)

	stored, err := store.GetRegister(ctx, register.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(d("1000")))
}
