package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-api/internal/database"
	"gitlab.com/yelinaung/expense-api/internal/models"
)

// ExpenseFilter narrows expense queries. Nil and empty fields match everything.
type ExpenseFilter struct {
	Start      *time.Time
	End        *time.Time
	CategoryID *int
	TagID      *int
	Search     string
	Limit      int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where renders the filter as a SQL condition on the alias e, with ownerID
// as the first argument.
func (f ExpenseFilter) where(ownerID string) (string, []any) {
	conds := []string{"e.owner_id = $1"}
	args := []any{ownerID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.Start != nil {
		add("e.expense_date >= ?", *f.Start)
	}
	if f.End != nil {
		add("e.expense_date <= ?", *f.End)
	}
	if f.CategoryID != nil {
		add("e.category_id = ?", *f.CategoryID)
	}
	if f.TagID != nil {
		add("EXISTS (SELECT 1 FROM expense_tags et WHERE et.expense_id = e.id AND et.tag_id = ?)", *f.TagID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("e.description ILIKE ?", "%"+likeEscaper.Replace(s)+"%")
	}

	return strings.Join(conds, " AND "), args
}

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseColumns = `
	e.id, e.owner_id, e.amount, COALESCE(e.description, ''), e.expense_date, e.category_id, e.created_at,
	c.id, c.owner_id, c.name, c.created_at`

// Create adds a new expense. ID and CreatedAt are filled in from the store.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (owner_id, amount, description, expense_date, category_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING id, created_at
	`, expense.OwnerID, expense.Amount, expense.Description, expense.Date, expense.CategoryID,
	).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves one of the owner's expenses with its category.
func (r *ExpenseRepository) GetByID(ctx context.Context, ownerID string, id int) (*models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.owner_id = $1 AND e.id = $2
	`, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, ErrNotFound
	}
	return &expenses[0], nil
}

// List retrieves the owner's expenses matching filter, newest first.
func (r *ExpenseRepository) List(ctx context.Context, ownerID string, filter ExpenseFilter) ([]models.Expense, error) {
	where, args := filter.where(ownerID)
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE ` + where + `
		ORDER BY e.expense_date DESC NULLS LAST, e.created_at DESC, e.id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// Update writes the mutable fields of one of the owner's expenses.
// CreatedAt is never touched.
func (r *ExpenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE expenses SET
			amount = $3,
			description = NULLIF($4, ''),
			expense_date = $5,
			category_id = $6
		WHERE owner_id = $1 AND id = $2
	`, expense.OwnerID, expense.ID, expense.Amount, expense.Description, expense.Date, expense.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCategory attaches a category to one of the owner's expenses, or clears
// it when categoryID is nil.
func (r *ExpenseRepository) SetCategory(ctx context.Context, ownerID string, id int, categoryID *int) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE expenses SET category_id = $3 WHERE owner_id = $1 AND id = $2
	`, ownerID, id, categoryID)
	if err != nil {
		return fmt.Errorf("failed to set expense category: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one of the owner's expenses.
func (r *ExpenseRepository) Delete(ctx context.Context, ownerID string, id int) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Total sums the owner's expenses matching filter. It is zero when none match.
func (r *ExpenseRepository) Total(ctx context.Context, ownerID string, filter ExpenseFilter) (decimal.Decimal, error) {
	where, args := filter.where(ownerID)
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(e.amount), 0) FROM expenses e WHERE `+where, args...).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total: %w", err)
	}
	return total, nil
}

// CategoryTotals sums matching expenses per category, in category id order
// with the uncategorized bucket last.
func (r *ExpenseRepository) CategoryTotals(ctx context.Context, ownerID string, filter ExpenseFilter) ([]models.CategoryTotal, error) {
	where, args := filter.where(ownerID)
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, SUM(e.amount)
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE `+where+`
		GROUP BY c.id, c.name
		ORDER BY c.id NULLS LAST
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		var name *string
		if err := rows.Scan(&ct.CategoryID, &name, &ct.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		ct.Name = models.UncategorizedName
		if name != nil {
			ct.Name = *name
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}
	return totals, nil
}

// DailyTotals sums matching expenses per date in ascending order. Expenses
// without a date are left out.
func (r *ExpenseRepository) DailyTotals(ctx context.Context, ownerID string, filter ExpenseFilter) ([]models.DailyTotal, error) {
	where, args := filter.where(ownerID)
	rows, err := r.db.Query(ctx, `
		SELECT e.expense_date, SUM(e.amount)
		FROM expenses e
		WHERE `+where+` AND e.expense_date IS NOT NULL
		GROUP BY e.expense_date
		ORDER BY e.expense_date
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []models.DailyTotal
	for rows.Next() {
		var dt models.DailyTotal
		if err := rows.Scan(&dt.Date, &dt.Total); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		totals = append(totals, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily totals: %w", err)
	}
	return totals, nil
}

// scanExpenses is a helper to scan expense rows with category joins.
func scanExpenses(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.Expense, error) {
	var expenses []models.Expense
	for rows.Next() {
		var exp models.Expense
		var catID *int
		var catOwner, catName *string
		var catCreatedAt *time.Time

		if err := rows.Scan(
			&exp.ID, &exp.OwnerID, &exp.Amount, &exp.Description, &exp.Date, &exp.CategoryID, &exp.CreatedAt,
			&catID, &catOwner, &catName, &catCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}

		if catID != nil {
			exp.Category = &models.Category{
				ID:        *catID,
				OwnerID:   *catOwner,
				Name:      *catName,
				CreatedAt: *catCreatedAt,
			}
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}
