// Package expense implements expense mutations and the period summary and
// insight reads on top of the repositories and the Gemini advisor.
package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/yelinaung/expense-api/internal/aggregate"
	"gitlab.com/yelinaung/expense-api/internal/gemini"
	"gitlab.com/yelinaung/expense-api/internal/logger"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

const instrumentation = "gitlab.com/yelinaung/expense-api/internal/expense"

// ErrInvalidInput wraps every validation failure of caller-supplied fields.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, ownerID string, id int) (*models.Expense, error)
	List(ctx context.Context, ownerID string, filter repository.ExpenseFilter) ([]models.Expense, error)
	Update(ctx context.Context, expense *models.Expense) error
	SetCategory(ctx context.Context, ownerID string, id int, categoryID *int) error
	Delete(ctx context.Context, ownerID string, id int) error
}

// CategoryStore resolves category names.
type CategoryStore interface {
	FindOrCreate(ctx context.Context, ownerID, name string) (*models.Category, error)
}

// TagStore resolves and attaches tags.
type TagStore interface {
	GetByIDs(ctx context.Context, ownerID string, ids []int) ([]models.Tag, error)
	GetByExpenseIDs(ctx context.Context, expenseIDs []int) (map[int][]models.Tag, error)
	SetExpenseTags(ctx context.Context, expenseID int, tagIDs []int) error
}

// SettingsStore reads the owner's month start day.
type SettingsStore interface {
	MonthStartDay(ctx context.Context, ownerID string) (int, error)
}

// Advisor is the text-generation collaborator.
type Advisor interface {
	Enabled() bool
	SuggestCategory(ctx context.Context, description string, amount decimal.Decimal) (string, error)
	GenerateInsight(ctx context.Context, in gemini.InsightInput) (gemini.Insight, error)
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Expenses   ExpenseStore
	Categories CategoryStore
	Tags       TagStore
	Settings   SettingsStore
	Aggregator *aggregate.Aggregator
	Advisor    Advisor
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Service orchestrates expense writes and reads for one owner at a time.
type Service struct {
	expenses   ExpenseStore
	categories CategoryStore
	tags       TagStore
	settings   SettingsStore
	agg        *aggregate.Aggregator
	advisor    Advisor

	now func() time.Time
	loc *time.Location

	suggestions metric.Int64Counter
}

// NewService creates a Service. A nil Advisor behaves like a disabled one.
func NewService(deps Deps, opts ...Option) *Service {
	s := &Service{
		expenses:   deps.Expenses,
		categories: deps.Categories,
		tags:       deps.Tags,
		settings:   deps.Settings,
		agg:        deps.Aggregator,
		advisor:    deps.Advisor,
		now:        time.Now,
		loc:        time.UTC,
	}
	if s.advisor == nil {
		s.advisor = gemini.Disabled()
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := otel.Meter(instrumentation).Int64Counter("expense.suggestions",
		metric.WithDescription("Category suggestion attempts by outcome"))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create suggestion counter")
	}
	s.suggestions = counter
	return s
}

var tracer = otel.Tracer(instrumentation)

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) recordSuggestion(ctx context.Context, outcome string) {
	if s.suggestions == nil {
		return
	}
	s.suggestions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
