package database

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testPoolErr  error
)

// TestPool returns the pool shared by every integration test in the process.
// The schema is migrated once, on first use.
func TestPool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dbURL := testURL(t)
	testPoolOnce.Do(func() {
		ctx := context.Background()
		testPool, testPoolErr = Connect(ctx, dbURL)
		if testPoolErr != nil {
			return
		}
		testPoolErr = RunMigrations(ctx, testPool)
	})

	if testPoolErr != nil {
		t.Fatalf("failed to set up test database: %v", testPoolErr)
	}

	return testPool
}

// TestTx begins a transaction on the shared pool and rolls it back when t
// finishes, so tests can write freely and run in parallel.
//
//	db := database.TestTx(t)
//	expenses := repository.NewExpenseRepository(db)
func TestTx(t testing.TB) PGXDB {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx
}
