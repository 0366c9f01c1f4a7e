package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/expense-api/internal/database"
	"gitlab.com/yelinaung/expense-api/internal/models"
)

// CategoryRepository handles category database operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List retrieves all categories for an owner.
func (r *CategoryRepository) List(ctx context.Context, ownerID string) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, name, created_at FROM categories
		WHERE owner_id = $1
		ORDER BY LOWER(name), id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves one of the owner's categories.
func (r *CategoryRepository) GetByID(ctx context.Context, ownerID string, id int) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, name, created_at FROM categories
		WHERE owner_id = $1 AND id = $2
	`, ownerID, id).Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", notFound(err))
	}
	return &cat, nil
}

// FindOrCreate returns the owner's category matching name case-insensitively,
// creating it when absent. The unique index on (owner_id, LOWER(name)) makes
// concurrent calls converge on one row.
func (r *CategoryRepository) FindOrCreate(ctx context.Context, ownerID, name string) (*models.Category, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO categories (owner_id, name) VALUES ($1, $2)
		ON CONFLICT (owner_id, LOWER(name)) DO NOTHING
	`, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	var cat models.Category
	err = r.db.QueryRow(ctx, `
		SELECT id, owner_id, name, created_at FROM categories
		WHERE owner_id = $1 AND LOWER(name) = LOWER($2)
	`, ownerID, name).Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return &cat, nil
}

// Create adds a new category for the owner.
func (r *CategoryRepository) Create(ctx context.Context, ownerID, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (owner_id, name) VALUES ($1, $2)
		RETURNING id, owner_id, name, created_at
	`, ownerID, name).Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &cat, nil
}

// Update renames one of the owner's categories.
func (r *CategoryRepository) Update(ctx context.Context, ownerID string, id int, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		UPDATE categories SET name = $3
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, name, created_at
	`, ownerID, id, name).Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update category: %w", notFound(err))
	}
	return &cat, nil
}

// Delete removes one of the owner's categories. Expenses referencing it keep
// existing with no category.
func (r *CategoryRepository) Delete(ctx context.Context, ownerID string, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
