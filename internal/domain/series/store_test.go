package series

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/platform/db/dbtest"
)

func newStoredSeries(t *testing.T, store *Store) Series {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item, err := store.Upsert(context.Background(), Series{
		ID:        uuid.NewString(),
		Code:      "T" + uuid.NewString()[:6],
		Name:      "Teste",
		DocType:   "FR",
		Year:      2026,
		Sequences: map[string]int64{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return item
}

func TestStoreAllocateAdvancesEachCounter(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()
	item := newStoredSeries(t, store)

	first, err := store.Allocate(ctx, item.ID, "FR", "")
	require.NoError(t, err)
	second, err := store.Allocate(ctx, item.ID, "FR", "")
	require.NoError(t, err)
	credit, err := store.Allocate(ctx, item.ID, "NC", "")
	require.NoError(t, err)
	overall, err := store.Allocate(ctx, item.ID, "", "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, int64(2), second.Sequence)
	assert.Equal(t, int64(1), credit.Sequence)
	assert.Equal(t, int64(1), overall.Sequence)
	assert.Equal(t, item.FormatNumber("FR", 2), second.Number)

	stored, err := store.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"FR": 2, "NC": 1}, stored.Sequences)
	assert.Equal(t, int64(1), stored.CurrentSequence)
}

func TestStoreAllocateIsUniqueUnderConcurrency(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()
	item := newStoredSeries(t, store)

	const workers = 12
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int64
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alloc, err := store.Allocate(ctx, item.ID, "FR", "")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			got = append(got, alloc.Sequence)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Len(t, got, workers)
	for i, seq := range got {
		assert.Equal(t, int64(i+1), seq)
	}
}

func TestStoreUpsertNeverLowersCounters(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()
	item := newStoredSeries(t, store)

	// stale is what an editor read before numbers were issued.
	stale, err := store.Get(ctx, item.ID)
	require.NoError(t, err)

	for range 3 {
		_, err := store.Allocate(ctx, item.ID, "FR", "")
		require.NoError(t, err)
	}
	_, err = store.Allocate(ctx, item.ID, "", "")
	require.NoError(t, err)

	stale.Name = "Renomeada"
	stale.Sequences = map[string]int64{"FR": 1, "RC": 4}
	saved, err := store.Upsert(ctx, stale)
	require.NoError(t, err)

	assert.Equal(t, "Renomeada", saved.Name)
	assert.Equal(t, map[string]int64{"FR": 3, "RC": 4}, saved.Sequences)
	assert.Equal(t, int64(1), saved.CurrentSequence)

	next, err := store.Allocate(ctx, item.ID, "FR", "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), next.Sequence)
}

func TestStoreDeactivateWithStaleCopyKeepsCounters(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()
	item := newStoredSeries(t, store)

	_, err := store.Allocate(ctx, item.ID, "FR", "")
	require.NoError(t, err)

	item.IsActive = false
	saved, err := store.Upsert(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Sequences["FR"])

	_, err = store.Allocate(ctx, item.ID, "FR", "")
	require.ErrorIs(t, err, ErrSeriesInactive)
}

func TestStoreUpsertRejectsDuplicateCodeForYear(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	item := newStoredSeries(t, store)

	dup := item
	dup.ID = uuid.NewString()
	_, err := store.Upsert(context.Background(), dup)
	require.ErrorIs(t, err, ErrDuplicate)
}
