package database

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

const testDatabaseEnv = "TEST_DATABASE_URL"

// testURL returns the integration database URL, skipping t when it is unset.
func testURL(t testing.TB) string {
	t.Helper()

	dbURL := os.Getenv(testDatabaseEnv)
	if dbURL == "" {
		t.Skip(testDatabaseEnv + " not set, skipping integration test")
	}
	return dbURL
}

// TestDB opens a dedicated pool that is closed when t finishes. It does not
// migrate; schema tests call RunMigrations themselves.
func TestDB(t testing.TB) *pgxpool.Pool {
	t.Helper()

	pool, err := Connect(context.Background(), testURL(t))
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// CleanupTables empties every application table and resets id sequences.
func CleanupTables(t testing.TB, db PGXDB) {
	t.Helper()

	stmt := "TRUNCATE TABLE " + strings.Join(Tables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := db.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
