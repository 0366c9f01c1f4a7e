// Package models defines the domain entities for the expense tracker.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxNameLength is the maximum allowed length for category and tag names.
const MaxNameLength = 50

// DefaultMonthStartDay is used when an owner has no stored setting.
const DefaultMonthStartDay = 1

// UncategorizedName labels totals for expenses with no category.
const UncategorizedName = "Uncategorized"

var (
	// ErrInvalidAmount is returned for amounts the store cannot represent.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidMonthStartDay is returned for days outside 1-31.
	ErrInvalidMonthStartDay = errors.New("month_start_date must be between 1 and 31")
	// ErrInvalidName is returned for empty or over-long names.
	ErrInvalidName = errors.New("invalid name")
)

// maxAmount is the exclusive bound of NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

// Category represents an expense category.
type Category struct {
	ID        int
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

// Tag represents an expense tag/label.
type Tag struct {
	ID        int
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

// Expense represents a single expense entry.
type Expense struct {
	ID          int
	OwnerID     string
	Amount      decimal.Decimal
	Description string
	Date        *time.Time
	CategoryID  *int
	Category    *Category
	Tags        []Tag
	CreatedAt   time.Time
}

// UserSetting holds per-owner preferences.
type UserSetting struct {
	OwnerID        string
	MonthStartDate int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateAmount checks that amount is non-negative, has at most two
// fractional digits, and fits NUMERIC(12,2).
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: at most 2 decimal places allowed", ErrInvalidAmount)
	}
	if amount.Abs().GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: must be less than %s", ErrInvalidAmount, maxAmount.String())
	}
	return nil
}

// ValidateMonthStartDay checks that day is a valid day-of-month.
func ValidateMonthStartDay(day int) error {
	if day < 1 || day > 31 {
		return ErrInvalidMonthStartDay
	}
	return nil
}

// NormalizeName trims whitespace and enforces the length limit.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: must not be empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: must be at most %d characters", ErrInvalidName, MaxNameLength)
	}
	return name, nil
}

// CategoryTotal is the summed amount for one category. CategoryID is nil for
// the uncategorized bucket.
type CategoryTotal struct {
	CategoryID *int
	Name       string
	Total      decimal.Decimal
}

// DailyTotal is the summed amount for one calendar date.
type DailyTotal struct {
	Date  time.Time
	Total decimal.Decimal
}
