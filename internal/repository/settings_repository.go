package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/expense-api/internal/database"
	"gitlab.com/yelinaung/expense-api/internal/models"
)

// SettingsRepository handles per-owner settings.
type SettingsRepository struct {
	db database.PGXDB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db database.PGXDB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves the owner's settings, or ErrNotFound when none are stored.
func (r *SettingsRepository) Get(ctx context.Context, ownerID string) (*models.UserSetting, error) {
	var s models.UserSetting
	err := r.db.QueryRow(ctx, `
		SELECT owner_id, month_start_date, created_at, updated_at
		FROM user_settings WHERE owner_id = $1
	`, ownerID).Scan(&s.OwnerID, &s.MonthStartDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", notFound(err))
	}
	return &s, nil
}

// Create stores the owner's first settings row. A second call fails with
// ErrSettingsExist.
func (r *SettingsRepository) Create(ctx context.Context, ownerID string, monthStartDate int) (*models.UserSetting, error) {
	var s models.UserSetting
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_settings (owner_id, month_start_date) VALUES ($1, $2)
		ON CONFLICT (owner_id) DO NOTHING
		RETURNING owner_id, month_start_date, created_at, updated_at
	`, ownerID, monthStartDate).Scan(&s.OwnerID, &s.MonthStartDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsExist
		}
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}
	return &s, nil
}

// Upsert sets the owner's month start date, creating the row if needed.
func (r *SettingsRepository) Upsert(ctx context.Context, ownerID string, monthStartDate int) (*models.UserSetting, error) {
	var s models.UserSetting
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_settings (owner_id, month_start_date) VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE
		SET month_start_date = EXCLUDED.month_start_date, updated_at = NOW()
		RETURNING owner_id, month_start_date, created_at, updated_at
	`, ownerID, monthStartDate).Scan(&s.OwnerID, &s.MonthStartDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return &s, nil
}

// MonthStartDay returns the owner's month start day, or the default when no
// settings are stored.
func (r *SettingsRepository) MonthStartDay(ctx context.Context, ownerID string) (int, error) {
	s, err := r.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.DefaultMonthStartDay, nil
		}
		return 0, err
	}
	return s.MonthStartDate, nil
}
