package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/domain/period"
	"gestao/internal/platform/db/dbtest"
)

func TestStoreInsertPostsEachSourceOnce(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()
	p := period.Period{Year: 2099, Month: 12}
	entry := Entry{
		Mode:      ModeSalaryPayment,
		SourceID:  uuid.NewString(),
		Period:    p,
		Date:      p.End(),
		DocNumber: "OT TESTE",
		Entity:    "1 funcionário(s)",
		Lines: []Line{
			{Account: "36.1.2", Description: "Ana", Debit: d("300")},
			{Account: "45.1", Description: "Pagamento de salários", Credit: d("300")},
		},
		CreatedBy: "user-1",
		CreatedAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}

	n, err := store.Insert(ctx, []Entry{entry})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = store.Insert(ctx, []Entry{entry})
	require.NoError(t, err)
	assert.Zero(t, n)

	posted, err := store.Posted(ctx, ModeSalaryPayment, p)
	require.NoError(t, err)
	assert.True(t, posted[entry.SourceID])

	listed, err := store.List(ctx, ModeSalaryPayment, p)
	require.NoError(t, err)
	var found *Entry
	for i := range listed {
		if listed[i].SourceID == entry.SourceID {
			found = &listed[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, StatusClassified, found.Status)
	require.Len(t, found.Lines, 2)
	assert.True(t, found.Balanced())
}
