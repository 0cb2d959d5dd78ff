// Package dbtest opens the Postgres database used by store tests. Tests are
// skipped unless TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gestao/internal/platform/db"
	"gestao/migrations"
)

const migrateLockKey = 7346001

// Open connects to TEST_DATABASE_URL and applies the schema.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	// Test binaries of several packages share the database and may migrate at once.
	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("failed to acquire connection: %v", err)
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrateLockKey); err != nil {
		t.Fatalf("failed to lock migrations: %v", err)
	}
	defer func() { _, _ = conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrateLockKey) }()
	if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return pool
}

// InsertEmployee stores a minimal employee row and returns its id.
func InsertEmployee(t *testing.T, pool *pgxpool.Pool, name string) string {
	t.Helper()
	id := uuid.NewString()
	if _, err := pool.Exec(context.Background(), `
    INSERT INTO employees (id, name, nif, base_salary) VALUES ($1, $2, $3, 100000)
  `, id, name, "NIF-"+id[:8]); err != nil {
		t.Fatalf("failed to insert employee: %v", err)
	}
	return id
}
