// Package fallback composes a remote repository with the local Redis snapshot
// so reads keep working and writes are kept locally while the database is
// unreachable.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gestao/internal/platform/cache"
)

// Outcome tells the caller where a change ended up.
type Outcome string

const (
	SyncRemote Outcome = "remote"
	SyncLocal  Outcome = "local"
)

var ErrDeleteUnsupported = errors.New("remote store does not support delete")

// Remote is the authoritative store for one collection.
type Remote[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Upsert(ctx context.Context, item T) (T, error)
}

// Deleter is implemented by remotes that allow hard deletes.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

type Options[T any] struct {
	// Name is the snapshot key suffix, e.g. "professions".
	Name string
	// Key extracts the identifier used to merge items into the snapshot.
	Key func(T) string
	// Hard reports errors that must reach the caller instead of being
	// absorbed by the local snapshot (duplicates, not found, validation).
	Hard func(error) bool
	// OnLocal is invoked every time a write is applied only locally.
	OnLocal func(collection string)
	Logger  *slog.Logger
}

type Collection[T any] struct {
	remote Remote[T]
	local  *cache.Store
	opts   Options[T]
}

func New[T any](remote Remote[T], local *cache.Store, opts Options[T]) *Collection[T] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Hard == nil {
		opts.Hard = func(error) bool { return false }
	}
	return &Collection[T]{remote: remote, local: local, opts: opts}
}

// List reads the remote collection and refreshes the snapshot. On remote
// failure it serves the last snapshot, or an empty list when none exists.
func (c *Collection[T]) List(ctx context.Context) ([]T, Outcome, error) {
	items, err := c.remote.List(ctx)
	if err == nil {
		if saveErr := c.local.Save(ctx, c.opts.Name, items); saveErr != nil {
			c.opts.Logger.Warn("local snapshot refresh failed", "collection", c.opts.Name, "err", saveErr)
		}
		return items, SyncRemote, nil
	}
	if c.opts.Hard(err) {
		return nil, SyncRemote, err
	}
	c.opts.Logger.Warn("remote list failed, serving local snapshot", "collection", c.opts.Name, "err", err)
	local, loadErr := c.snapshot(ctx)
	if loadErr != nil {
		return nil, SyncLocal, errors.Join(err, loadErr)
	}
	return local, SyncLocal, nil
}

// Get reads one item, looking it up in the snapshot when the remote is down.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, Outcome, error) {
	var zero T
	item, err := c.remote.Get(ctx, id)
	if err == nil {
		return item, SyncRemote, nil
	}
	if c.opts.Hard(err) {
		return zero, SyncRemote, err
	}
	c.opts.Logger.Warn("remote get failed, reading local snapshot", "collection", c.opts.Name, "id", id, "err", err)
	local, loadErr := c.snapshot(ctx)
	if loadErr != nil {
		return zero, SyncLocal, errors.Join(err, loadErr)
	}
	for _, candidate := range local {
		if c.opts.Key(candidate) == id {
			return candidate, SyncLocal, nil
		}
	}
	return zero, SyncLocal, err
}

// Upsert writes remotely; a recoverable failure keeps the change in the
// snapshot and reports SyncLocal.
func (c *Collection[T]) Upsert(ctx context.Context, item T) (T, Outcome, error) {
	saved, err := c.remote.Upsert(ctx, item)
	if err == nil {
		if mergeErr := c.merge(ctx, saved); mergeErr != nil {
			c.opts.Logger.Warn("local snapshot merge failed", "collection", c.opts.Name, "err", mergeErr)
		}
		return saved, SyncRemote, nil
	}
	if c.opts.Hard(err) {
		return item, SyncRemote, err
	}
	c.opts.Logger.Warn("remote write failed, keeping change locally", "collection", c.opts.Name, "id", c.opts.Key(item), "err", err)
	if mergeErr := c.merge(ctx, item); mergeErr != nil {
		return item, SyncLocal, fmt.Errorf("platform/fallback: local write after remote failure: %w", errors.Join(err, mergeErr))
	}
	if c.opts.OnLocal != nil {
		c.opts.OnLocal(c.opts.Name)
	}
	return item, SyncLocal, nil
}

// Delete is remote only; failures are returned as-is.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	deleter, ok := c.remote.(Deleter)
	if !ok {
		return ErrDeleteUnsupported
	}
	if err := deleter.Delete(ctx, id); err != nil {
		return err
	}
	local, err := c.snapshot(ctx)
	if err != nil {
		c.opts.Logger.Warn("local snapshot read failed after delete", "collection", c.opts.Name, "err", err)
		return nil
	}
	kept := local[:0]
	for _, candidate := range local {
		if c.opts.Key(candidate) != id {
			kept = append(kept, candidate)
		}
	}
	if err := c.local.Save(ctx, c.opts.Name, kept); err != nil {
		c.opts.Logger.Warn("local snapshot prune failed", "collection", c.opts.Name, "err", err)
	}
	return nil
}

func (c *Collection[T]) snapshot(ctx context.Context) ([]T, error) {
	var items []T
	err := c.local.Load(ctx, c.opts.Name, &items)
	if errors.Is(err, cache.ErrSnapshotMissing) {
		return []T{}, nil
	}
	return items, err
}

func (c *Collection[T]) merge(ctx context.Context, item T) error {
	items, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	key := c.opts.Key(item)
	replaced := false
	for i := range items {
		if c.opts.Key(items[i]) == key {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append([]T{item}, items...)
	}
	return c.local.Save(ctx, c.opts.Name, items)
}
