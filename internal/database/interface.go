package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXDB is the query surface shared by *pgxpool.Pool and pgx.Tx. Repositories
// and migrations take it so they run unchanged inside a test transaction.
type PGXDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pinger reports whether the database answers. The health endpoint uses it.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ PGXDB  = (*pgxpool.Pool)(nil)
	_ PGXDB  = (pgx.Tx)(nil)
	_ Pinger = (*pgxpool.Pool)(nil)
)
