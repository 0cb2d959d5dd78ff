// Package cache is the local fallback store: one JSON snapshot per collection
// kept in Redis under a configurable prefix.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var ErrSnapshotMissing = errors.New("local snapshot not found")

// Connect opens a Redis client and verifies it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", addr, err)
	}
	return client, nil
}

type Store struct {
	client redis.UniversalClient
	prefix string
}

func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(collection string) string {
	if s.prefix == "" {
		return collection
	}
	return s.prefix + ":" + collection
}

// Load decodes the snapshot of collection into dst.
func (s *Store) Load(ctx context.Context, collection string, dst any) error {
	raw, err := s.client.Get(ctx, s.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrSnapshotMissing
	}
	if err != nil {
		return fmt.Errorf("platform/cache: load %s: %w", collection, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("platform/cache: decode %s: %w", collection, err)
	}
	return nil
}

// Save replaces the snapshot of collection.
func (s *Store) Save(ctx context.Context, collection string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("platform/cache: encode %s: %w", collection, err)
	}
	if err := s.client.Set(ctx, s.key(collection), raw, 0).Err(); err != nil {
		return fmt.Errorf("platform/cache: save %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
