// Package aggregate computes spending totals over a period.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/period"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

// Store reads grouped sums of an owner's expenses.
type Store interface {
	CategoryTotals(ctx context.Context, ownerID string, filter repository.ExpenseFilter) ([]models.CategoryTotal, error)
	DailyTotals(ctx context.Context, ownerID string, filter repository.ExpenseFilter) ([]models.DailyTotal, error)
	Total(ctx context.Context, ownerID string, filter repository.ExpenseFilter) (decimal.Decimal, error)
}

// Filter carries the non-date narrowing applied on top of a period.
type Filter struct {
	CategoryID *int
	TagID      *int
	Search     string
}

// Summary is the aggregate for one period.
type Summary struct {
	Range      period.Range
	Total      decimal.Decimal
	ByCategory []models.CategoryTotal
	Daily      []models.DailyTotal
}

// TopCategory returns the largest category bucket, if any.
func (s Summary) TopCategory() (models.CategoryTotal, bool) {
	if len(s.ByCategory) == 0 {
		return models.CategoryTotal{}, false
	}
	return s.ByCategory[0], true
}

// Aggregator summarizes expenses from a Store.
type Aggregator struct {
	store Store
}

// New creates an Aggregator.
func New(store Store) *Aggregator {
	return &Aggregator{store: store}
}

func expenseFilter(r period.Range, f Filter) repository.ExpenseFilter {
	start, end := r.Bounds()
	return repository.ExpenseFilter{
		Start:      start,
		End:        end,
		CategoryID: f.CategoryID,
		TagID:      f.TagID,
		Search:     f.Search,
	}
}

// Summary returns the total, per-category and per-day sums for ownerID in r.
// The total is derived from the category rows so the two always agree.
func (a *Aggregator) Summary(ctx context.Context, ownerID string, r period.Range, f Filter) (*Summary, error) {
	ef := expenseFilter(r, f)

	byCategory, err := a.store.CategoryTotals(ctx, ownerID, ef)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	daily, err := a.store.DailyTotals(ctx, ownerID, ef)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate days: %w", err)
	}

	sort.SliceStable(byCategory, func(i, j int) bool {
		return byCategory[i].Total.GreaterThan(byCategory[j].Total)
	})

	total := decimal.Zero
	for _, ct := range byCategory {
		total = total.Add(ct.Total)
	}

	if byCategory == nil {
		byCategory = []models.CategoryTotal{}
	}
	if daily == nil {
		daily = []models.DailyTotal{}
	}

	return &Summary{
		Range:      r,
		Total:      total,
		ByCategory: byCategory,
		Daily:      daily,
	}, nil
}

// TotalOnly sums ownerID's expenses in r without grouping.
func (a *Aggregator) TotalOnly(ctx context.Context, ownerID string, r period.Range, f Filter) (decimal.Decimal, error) {
	total, err := a.store.Total(ctx, ownerID, expenseFilter(r, f))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate total: %w", err)
	}
	return total, nil
}
