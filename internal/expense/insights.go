package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"gitlab.com/yelinaung/expense-api/internal/aggregate"
	"gitlab.com/yelinaung/expense-api/internal/gemini"
	"gitlab.com/yelinaung/expense-api/internal/logger"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/period"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

// User-facing insight texts for the cases where no model insight is shown.
const (
	NoExpensesMessage  = "No expenses recorded for this period yet. Add some expenses to get insights."
	RateLimitedMessage = "AI insights hit the request limit. Please try again later."
	UnavailableMessage = "AI insights are unavailable right now."
	DisabledMessage    = "AI insights are not configured."
	FallbackMessage    = "Could not generate an insight for this period."
)

// PeriodQuery selects a period and optional narrowing for read endpoints.
// Date is the reference date and defaults to today. Start and End only take
// effect when both are set.
type PeriodQuery struct {
	Kind   period.Kind
	Date   *time.Time
	Start  *time.Time
	End    *time.Time
	Filter aggregate.Filter
}

// InsightsResult is the current period's summary plus the narrative insight.
type InsightsResult struct {
	Summary       *aggregate.Summary
	PreviousTotal *decimal.Decimal
	Insight       gemini.Insight
}

// Resolve turns q into a concrete range using the owner's month start day.
func (s *Service) Resolve(ctx context.Context, ownerID string, q PeriodQuery) (period.Range, error) {
	ref := s.now().In(s.loc)
	if q.Date != nil {
		ref = *q.Date
	}

	day := models.DefaultMonthStartDay
	if q.Kind != period.Weekly && q.Kind != period.All && (q.Start == nil || q.End == nil) {
		var err error
		if day, err = s.settings.MonthStartDay(ctx, ownerID); err != nil {
			return period.Range{}, fmt.Errorf("failed to load settings: %w", err)
		}
	}

	return period.Resolve(q.Kind, ref, q.Start, q.End, day), nil
}

// Summary aggregates the owner's expenses over the queried period. It never
// calls the advisor.
func (s *Service) Summary(ctx context.Context, ownerID string, q PeriodQuery) (_ *aggregate.Summary, err error) {
	ctx, span := tracer.Start(ctx, "expense.Summary")
	defer func() { endSpan(span, err) }()

	r, err := s.Resolve(ctx, ownerID, q)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("period", r.Label()))

	return s.agg.Summary(ctx, ownerID, r, q.Filter)
}

// Insights summarizes the queried period, compares it with the previous one
// and asks the advisor for a narrative. Advisor failures become user-facing
// text, never errors.
func (s *Service) Insights(ctx context.Context, ownerID string, q PeriodQuery) (_ *InsightsResult, err error) {
	ctx, span := tracer.Start(ctx, "expense.Insights")
	defer func() { endSpan(span, err) }()

	r, err := s.Resolve(ctx, ownerID, q)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("period", r.Label()))

	summary, err := s.agg.Summary(ctx, ownerID, r, q.Filter)
	if err != nil {
		return nil, err
	}

	result := &InsightsResult{Summary: summary}
	if prev, ok := r.Previous(); ok {
		total, err := s.agg.TotalOnly(ctx, ownerID, prev, q.Filter)
		if err != nil {
			return nil, err
		}
		result.PreviousTotal = &total
	}

	if summary.Total.IsZero() {
		result.Insight = gemini.Insight{Text: NoExpensesMessage}
		return result, nil
	}

	result.Insight = s.insight(ctx, ownerID, summary, result.PreviousTotal)
	return result, nil
}

func (s *Service) insight(ctx context.Context, ownerID string, summary *aggregate.Summary, previous *decimal.Decimal) gemini.Insight {
	if !s.advisor.Enabled() {
		return gemini.Insight{Text: DisabledMessage}
	}

	insight, err := s.advisor.GenerateInsight(ctx, InsightInput(summary, previous))
	if err == nil {
		return insight
	}

	log := logger.Log.Warn().Err(err).Str("owner", logger.HashOwnerID(ownerID))
	switch {
	case gemini.IsRateLimited(err):
		log.Msg("Insight generation rate limited")
		return gemini.Insight{Text: RateLimitedMessage}
	case errors.Is(err, gemini.ErrNoInsight):
		log.Msg("Insight generation returned nothing usable")
		return gemini.Insight{Text: FallbackMessage}
	default:
		log.Msg("Insight generation failed")
		return gemini.Insight{Text: UnavailableMessage}
	}
}

// InsightInput builds the advisor payload for a summary.
func InsightInput(summary *aggregate.Summary, previous *decimal.Decimal) gemini.InsightInput {
	in := gemini.InsightInput{
		Period:        summary.Range.Label(),
		Total:         summary.Total,
		PreviousTotal: previous,
	}
	if summary.Range.Bounded() {
		in.Start = summary.Range.Start.Format(period.DateLayout)
		in.End = summary.Range.End.Format(period.DateLayout)
	}
	for _, ct := range summary.ByCategory {
		in.ByCategory = append(in.ByCategory, gemini.CategoryLine{
			ID:    ct.CategoryID,
			Name:  ct.Name,
			Total: ct.Total,
		})
	}
	return in
}

// PeriodExpenses lists the owner's expenses inside the queried period.
func (s *Service) PeriodExpenses(ctx context.Context, ownerID string, q PeriodQuery) (period.Range, []models.Expense, error) {
	r, err := s.Resolve(ctx, ownerID, q)
	if err != nil {
		return period.Range{}, nil, err
	}
	start, end := r.Bounds()
	expenses, err := s.List(ctx, ownerID, repository.ExpenseFilter{
		Start:      start,
		End:        end,
		CategoryID: q.Filter.CategoryID,
		TagID:      q.Filter.TagID,
		Search:     q.Filter.Search,
	})
	if err != nil {
		return period.Range{}, nil, err
	}
	return r, expenses, nil
}
