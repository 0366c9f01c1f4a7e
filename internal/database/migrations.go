package database

import (
	"context"
	"fmt"
)

// Tables lists the application tables, dependents first.
var Tables = []string{"expense_tags", "expenses", "tags", "categories", "user_settings"}

// RunMigrations creates the database schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_owner_name ON categories(owner_id, LOWER(name))`,

		`CREATE TABLE IF NOT EXISTS tags (
			id SERIAL PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_owner_name ON tags(owner_id, LOWER(name))`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id SERIAL PRIMARY KEY,
			owner_id TEXT NOT NULL,
			amount NUMERIC(12, 2) NOT NULL,
			description TEXT,
			expense_date DATE,
			category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_owner_id ON expenses(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_owner_date ON expenses(owner_id, expense_date)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_category_id ON expenses(category_id)`,

		`CREATE TABLE IF NOT EXISTS expense_tags (
			expense_id INTEGER NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (expense_id, tag_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expense_tags_tag_id ON expense_tags(tag_id)`,

		`CREATE TABLE IF NOT EXISTS user_settings (
			owner_id TEXT PRIMARY KEY,
			month_start_date INTEGER NOT NULL DEFAULT 1
				CHECK (month_start_date BETWEEN 1 AND 31),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
