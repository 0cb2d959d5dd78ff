package series

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestao/internal/platform/cache"
	"gestao/internal/platform/fallback"
)

var errDown = errors.New("dial tcp: connection refused")

// memRemote implements both the remote collection and the allocator.
type memRemote struct {
	mu    sync.Mutex
	items map[string]Series
	down  bool
}

func (m *memRemote) List(context.Context) ([]Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errDown
	}
	var out []Series
	for _, s := range m.items {
		out = append(out, s)
	}
	return out, nil
}

func (m *memRemote) Get(_ context.Context, id string) (Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return Series{}, errDown
	}
	s, ok := m.items[id]
	if !ok {
		return Series{}, ErrNotFound
	}
	return s, nil
}

func (m *memRemote) Upsert(_ context.Context, s Series) (Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return Series{}, errDown
	}
	for _, existing := range m.items {
		if existing.ID != s.ID && existing.Code == s.Code && existing.Year == s.Year {
			return Series{}, ErrDuplicate
		}
	}
	m.items[s.ID] = s
	return s, nil
}

func (m *memRemote) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errDown
	}
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRemote) Allocate(_ context.Context, seriesID, docType, userID string) (Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return Allocation{}, errDown
	}
	item, ok := m.items[seriesID]
	if !ok {
		return Allocation{}, ErrNotFound
	}
	if !item.IsActive {
		return Allocation{}, ErrSeriesInactive
	}
	if !item.Allows(userID) {
		return Allocation{}, ErrUserNotAllowed
	}
	next, sequence := item.Next(docType)
	m.items[seriesID] = next
	resolved := docType
	if resolved == "" {
		resolved = item.DocType
	}
	return Allocation{SeriesID: seriesID, DocType: resolved, Sequence: sequence, Number: item.FormatNumber(resolved, sequence)}, nil
}

func newService(t *testing.T) (*Service, *memRemote) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	remote := &memRemote{items: map[string]Series{}}
	repo := NewRepository(remote, cache.NewStore(client, "gestao:local"), nil)
	return NewService(repo, remote, nil), remote
}

func posSeries() Series {
	return Series{Code: "pos", Name: "Ponto de Venda", DocType: "fr", Year: 2026, IsActive: true}
}

func TestNextNumberIsStrictlyIncreasing(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, outcome, err := svc.Create(ctx, posSeries())
	require.NoError(t, err)
	require.Equal(t, fallback.SyncRemote, outcome)
	assert.Equal(t, "POS", created.Code)
	assert.Equal(t, "FR", created.DocType)

	var last int64
	for i := 0; i < 7; i++ {
		alloc, err := svc.NextNumber(ctx, created.ID, "FR", "user-1")
		require.NoError(t, err)
		require.Greater(t, alloc.Sequence, last)
		last = alloc.Sequence
	}
	alloc, err := svc.NextNumber(ctx, created.ID, "fr", "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), alloc.Sequence)
	assert.Equal(t, "FR POS2026/8", alloc.Number)
}

func TestNextNumberConcurrentCallsNeverRepeat(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, _, err := svc.Create(ctx, posSeries())
	require.NoError(t, err)

	const n = 50
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alloc, err := svc.NextNumber(ctx, created.ID, "FR", "")
			if err == nil {
				results <- alloc.Sequence
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int64]bool{}
	for seq := range results {
		require.False(t, seen[seq], "duplicate sequence %d", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, n)
}

func TestSequencesAreIndependentPerType(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, _, err := svc.Create(ctx, posSeries())
	require.NoError(t, err)

	fr, err := svc.NextNumber(ctx, created.ID, "FR", "")
	require.NoError(t, err)
	nc, err := svc.NextNumber(ctx, created.ID, "NC", "")
	require.NoError(t, err)
	general, err := svc.NextNumber(ctx, created.ID, "", "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), fr.Sequence)
	assert.Equal(t, int64(1), nc.Sequence)
	assert.Equal(t, "NC POS2026/1", nc.Number)
	assert.Equal(t, int64(1), general.Sequence)
	assert.Equal(t, "FR", general.DocType)
}

func TestNextNumberRefusesInactiveSeriesAndForeignUsers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	restricted := posSeries()
	restricted.AllowedUserIDs = []string{"user-1"}
	created, _, err := svc.Create(ctx, restricted)
	require.NoError(t, err)

	_, err = svc.NextNumber(ctx, created.ID, "FR", "user-2")
	require.ErrorIs(t, err, ErrUserNotAllowed)

	_, _, err = svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	_, err = svc.NextNumber(ctx, created.ID, "FR", "user-1")
	require.ErrorIs(t, err, ErrSeriesInactive)
}

func TestUpdateNeverMovesCountersBack(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, _, err := svc.Create(ctx, posSeries())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.NextNumber(ctx, created.ID, "FR", "")
		require.NoError(t, err)
	}

	changes := posSeries()
	changes.Name = "POS Loja 1"
	changes.Sequences = map[string]int64{"FR": 1}
	updated, _, err := svc.Update(ctx, created.ID, changes)
	require.NoError(t, err)
	assert.Equal(t, "POS Loja 1", updated.Name)
	assert.Equal(t, int64(3), updated.Sequences["FR"])
}

func TestCreateWhileRemoteDownIsKeptLocally(t *testing.T) {
	svc, remote := newService(t)
	ctx := context.Background()
	remote.down = true

	created, outcome, err := svc.Create(ctx, posSeries())
	require.NoError(t, err)
	assert.Equal(t, fallback.SyncLocal, outcome)

	items, outcome, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, fallback.SyncLocal, outcome)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)

	require.Error(t, svc.Delete(ctx, created.ID))
}

func TestCreateRejectsDuplicateCodeForYear(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, _, err := svc.Create(ctx, posSeries())
	require.NoError(t, err)

	_, _, err = svc.Create(ctx, posSeries())
	require.ErrorIs(t, err, ErrDuplicate)

	_, _, err = svc.Create(ctx, Series{Code: "X", Name: "x", Year: 99})
	require.ErrorIs(t, err, ErrInvalid)
}
