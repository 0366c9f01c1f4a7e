// Package repository provides database access for domain entities.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches the owner and id.
	ErrNotFound = errors.New("not found")
	// ErrSettingsExist is returned when an owner already has settings.
	ErrSettingsExist = errors.New("settings already exist")
	// ErrDuplicateName is returned when a name is already taken by the owner.
	ErrDuplicateName = errors.New("name already exists")
)

const uniqueViolation = "23505"

// notFound maps pgx.ErrNoRows onto ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
