package expense

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"gitlab.com/yelinaung/expense-api/internal/logger"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

// Field is an optional value in a partial update.
type Field[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// CreateInput holds the fields of a new expense. Category is an optional
// category name; when empty and Description is present a suggestion is tried.
type CreateInput struct {
	Amount      decimal.Decimal
	Description string
	Date        *time.Time
	Category    string
	TagIDs      []int
}

// UpdateInput holds a partial update. Unset fields are left alone. A set
// Category with an empty value clears the category.
type UpdateInput struct {
	Amount      Field[decimal.Decimal]
	Description Field[string]
	Date        Field[*time.Time]
	Category    Field[string]
	TagIDs      Field[[]int]
}

// Create stores a new expense for ownerID and returns it with its category
// and tags loaded.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (_ *models.Expense, err error) {
	ctx, span := tracer.Start(ctx, "expense.Create")
	defer func() { endSpan(span, err) }()

	if err := models.ValidateAmount(in.Amount); err != nil {
		return nil, invalid("amount: %v", err)
	}
	tagIDs, err := s.checkTags(ctx, ownerID, in.TagIDs)
	if err != nil {
		return nil, err
	}

	exp := &models.Expense{
		OwnerID:     ownerID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
	}

	explicit := strings.TrimSpace(in.Category) != ""
	if explicit {
		cat, err := s.resolveCategory(ctx, ownerID, in.Category)
		if err != nil {
			return nil, err
		}
		exp.CategoryID = &cat.ID
	}

	if err := s.expenses.Create(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	span.SetAttributes(attribute.Int("expense.id", exp.ID))

	if len(tagIDs) > 0 {
		if err := s.tags.SetExpenseTags(ctx, exp.ID, tagIDs); err != nil {
			return nil, fmt.Errorf("failed to tag expense: %w", err)
		}
	}

	if !explicit && exp.Description != "" {
		s.suggest(ctx, exp)
	}

	logger.Log.Info().
		Str("owner", logger.HashOwnerID(ownerID)).
		Int("expense_id", exp.ID).
		Str("description", logger.SanitizeDescription(exp.Description)).
		Bool("categorized", exp.CategoryID != nil).
		Msg("Expense created")

	return s.Get(ctx, ownerID, exp.ID)
}

// Update applies a partial update to one of the owner's expenses.
func (s *Service) Update(ctx context.Context, ownerID string, id int, in UpdateInput) (_ *models.Expense, err error) {
	ctx, span := tracer.Start(ctx, "expense.Update")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("expense.id", id))

	exp, err := s.expenses.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Amount.Set {
		if err := models.ValidateAmount(in.Amount.Value); err != nil {
			return nil, invalid("amount: %v", err)
		}
		exp.Amount = in.Amount.Value
	}
	descriptionChanged := false
	if in.Description.Set {
		desc := strings.TrimSpace(in.Description.Value)
		descriptionChanged = desc != exp.Description
		exp.Description = desc
	}
	if in.Date.Set {
		exp.Date = in.Date.Value
	}

	var tagIDs []int
	if in.TagIDs.Set {
		if tagIDs, err = s.checkTags(ctx, ownerID, in.TagIDs.Value); err != nil {
			return nil, err
		}
	}

	if in.Category.Set {
		exp.CategoryID = nil
		if strings.TrimSpace(in.Category.Value) != "" {
			cat, err := s.resolveCategory(ctx, ownerID, in.Category.Value)
			if err != nil {
				return nil, err
			}
			exp.CategoryID = &cat.ID
		}
	}

	if err := s.expenses.Update(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	if in.TagIDs.Set {
		if err := s.tags.SetExpenseTags(ctx, exp.ID, tagIDs); err != nil {
			return nil, fmt.Errorf("failed to tag expense: %w", err)
		}
	}

	// A manual category always wins. Otherwise re-suggest when there is
	// nothing assigned yet or the text the old suggestion was based on changed.
	if !in.Category.Set && exp.Description != "" && (exp.CategoryID == nil || descriptionChanged) {
		s.suggest(ctx, exp)
	}

	return s.Get(ctx, ownerID, exp.ID)
}

// Get returns one of the owner's expenses with tags loaded.
func (s *Service) Get(ctx context.Context, ownerID string, id int) (*models.Expense, error) {
	exp, err := s.expenses.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.GetByExpenseIDs(ctx, []int{exp.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	exp.Tags = tags[exp.ID]
	return exp, nil
}

// List returns the owner's expenses matching filter with tags loaded.
func (s *Service) List(ctx context.Context, ownerID string, filter repository.ExpenseFilter) ([]models.Expense, error) {
	expenses, err := s.expenses.List(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// Delete removes one of the owner's expenses.
func (s *Service) Delete(ctx context.Context, ownerID string, id int) error {
	if err := s.expenses.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	logger.Log.Info().
		Str("owner", logger.HashOwnerID(ownerID)).
		Int("expense_id", id).
		Msg("Expense deleted")
	return nil
}

func (s *Service) loadTags(ctx context.Context, expenses []models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	ids := make([]int, len(expenses))
	for i := range expenses {
		ids[i] = expenses[i].ID
	}
	tags, err := s.tags.GetByExpenseIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	for i := range expenses {
		expenses[i].Tags = tags[expenses[i].ID]
	}
	return nil
}

// checkTags de-duplicates ids and rejects any that the owner does not have.
func (s *Service) checkTags(ctx context.Context, ownerID string, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	found, err := s.tags.GetByIDs(ctx, ownerID, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tags: %w", err)
	}
	if len(found) != len(unique) {
		known := make(map[int]bool, len(found))
		for _, t := range found {
			known[t.ID] = true
		}
		for _, id := range unique {
			if !known[id] {
				return nil, invalid("unknown tag id %d", id)
			}
		}
	}
	return unique, nil
}

func (s *Service) resolveCategory(ctx context.Context, ownerID, name string) (*models.Category, error) {
	name, err := models.NormalizeName(name)
	if err != nil {
		return nil, invalid("category: %v", err)
	}
	cat, err := s.categories.FindOrCreate(ctx, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}
	return cat, nil
}

// suggest asks the advisor for a category and attaches it. Every failure is
// logged and dropped; the expense stays as it is.
func (s *Service) suggest(ctx context.Context, exp *models.Expense) {
	if !s.advisor.Enabled() {
		s.recordSuggestion(ctx, "skipped")
		return
	}

	owner := logger.HashOwnerID(exp.OwnerID)

	name, err := s.advisor.SuggestCategory(ctx, exp.Description, exp.Amount)
	if err != nil {
		s.recordSuggestion(ctx, "failed")
		logger.Log.Warn().Err(err).
			Str("owner", owner).
			Int("expense_id", exp.ID).
			Msg("Category suggestion failed")
		return
	}

	name, err = models.NormalizeName(name)
	if err != nil {
		s.recordSuggestion(ctx, "failed")
		return
	}
	cat, err := s.categories.FindOrCreate(ctx, exp.OwnerID, name)
	if err != nil {
		s.recordSuggestion(ctx, "failed")
		logger.Log.Error().Err(err).
			Str("owner", owner).
			Int("expense_id", exp.ID).
			Msg("Failed to find or create suggested category")
		return
	}
	if err := s.expenses.SetCategory(ctx, exp.OwnerID, exp.ID, &cat.ID); err != nil {
		s.recordSuggestion(ctx, "failed")
		logger.Log.Error().Err(err).
			Str("owner", owner).
			Int("expense_id", exp.ID).
			Msg("Failed to attach suggested category")
		return
	}

	exp.CategoryID = &cat.ID
	exp.Category = cat
	s.recordSuggestion(ctx, "applied")

	logger.Log.Debug().
		Str("owner", owner).
		Int("expense_id", exp.ID).
		Int("category_id", cat.ID).
		Msg("Suggested category attached")
}
