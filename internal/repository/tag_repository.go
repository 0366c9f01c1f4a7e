package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/expense-api/internal/database"
	"gitlab.com/yelinaung/expense-api/internal/models"
)

// TagRepository handles tag database operations.
type TagRepository struct {
	db database.PGXDB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db database.PGXDB) *TagRepository {
	return &TagRepository{db: db}
}

// List retrieves all tags for an owner.
func (r *TagRepository) List(ctx context.Context, ownerID string) ([]models.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, name, created_at FROM tags
		WHERE owner_id = $1
		ORDER BY LOWER(name), id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// GetByID retrieves one of the owner's tags.
func (r *TagRepository) GetByID(ctx context.Context, ownerID string, id int) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, name, created_at FROM tags
		WHERE owner_id = $1 AND id = $2
	`, ownerID, id).Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", notFound(err))
	}
	return &tag, nil
}

// GetByIDs retrieves the subset of ids that belong to the owner.
func (r *TagRepository) GetByIDs(ctx context.Context, ownerID string, ids []int) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, name, created_at FROM tags
		WHERE owner_id = $1 AND id = ANY($2)
		ORDER BY LOWER(name), id
	`, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags by IDs: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// Create adds a new tag for the owner.
func (r *TagRepository) Create(ctx context.Context, ownerID, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.QueryRow(ctx, `
		INSERT INTO tags (owner_id, name) VALUES ($1, $2)
		RETURNING id, owner_id, name, created_at
	`, ownerID, name).Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return &tag, nil
}

// Update renames one of the owner's tags.
func (r *TagRepository) Update(ctx context.Context, ownerID string, id int, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.QueryRow(ctx, `
		UPDATE tags SET name = $3
		WHERE owner_id = $1 AND id = $2
		RETURNING id, owner_id, name, created_at
	`, ownerID, id, name).Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update tag: %w", notFound(err))
	}
	return &tag, nil
}

// Delete removes one of the owner's tags. CASCADE handles junction rows.
func (r *TagRepository) Delete(ctx context.Context, ownerID string, id int) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tags WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByExpenseIDs batch-loads tags for multiple expenses.
func (r *TagRepository) GetByExpenseIDs(ctx context.Context, expenseIDs []int) (map[int][]models.Tag, error) {
	if len(expenseIDs) == 0 {
		return make(map[int][]models.Tag), nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT et.expense_id, t.id, t.owner_id, t.name, t.created_at
		FROM tags t
		JOIN expense_tags et ON t.id = et.tag_id
		WHERE et.expense_id = ANY($1)
		ORDER BY LOWER(t.name), t.id
	`, expenseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags by expense IDs: %w", err)
	}
	defer rows.Close()

	result := make(map[int][]models.Tag)
	for rows.Next() {
		var expenseID int
		var tag models.Tag
		if err := rows.Scan(&expenseID, &tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		result[expenseID] = append(result[expenseID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return result, nil
}

// SetExpenseTags replaces all tags on an expense with the given tag IDs.
// Callers must have checked that the tags belong to the expense's owner.
func (r *TagRepository) SetExpenseTags(ctx context.Context, expenseID int, tagIDs []int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM expense_tags WHERE expense_id = $1`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to clear expense tags: %w", err)
	}

	for _, tagID := range tagIDs {
		_, err := r.db.Exec(ctx, `
			INSERT INTO expense_tags (expense_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, expenseID, tagID)
		if err != nil {
			return fmt.Errorf("failed to add tag %d to expense %d: %w", tagID, expenseID, err)
		}
	}
	return nil
}

// scanTags is a helper to scan tag rows.
func scanTags(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.Tag, error) {
	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}
