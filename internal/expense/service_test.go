package expense

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/expense-api/internal/aggregate"
	"gitlab.com/yelinaung/expense-api/internal/gemini"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/period"
	"gitlab.com/yelinaung/expense-api/internal/repository"
)

var today = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, advisor Advisor) (*Service, *memDB) {
	t.Helper()

	db := newMemDB()
	svc := NewService(Deps{
		Expenses:   db,
		Categories: db,
		Tags:       db,
		Settings:   db,
		Aggregator: aggregate.New(db),
		Advisor:    advisor,
	}, WithClock(func() time.Time { return today }))
	return svc, db
}

func stubbed(text string) (*gemini.Client, *stubGenerator) {
	gen := &stubGenerator{text: text}
	return gemini.NewClientWithGenerator(gen), gen
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) *time.Time {
	t := time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCreate_SuggestsCategory(t *testing.T) {
	t.Parallel()

	client, gen := stubbed(`{"category":"Food"}`)
	svc, db := newTestService(t, client)

	exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("4.50"), Description: "coffee shop"})
	require.NoError(t, err)
	require.Equal(t, "U", exp.OwnerID)
	require.NotNil(t, exp.Category)
	require.Equal(t, "Food", exp.Category.Name)
	require.Equal(t, "U", exp.Category.OwnerID)
	require.Equal(t, 1, gen.callCount())
	require.Contains(t, gen.prompt, "coffee shop")
	require.Contains(t, gen.prompt, "4.50")

	cats := db.categoriesOf("U")
	require.Len(t, cats, 1)
	require.Equal(t, "Food", cats[0].Name)
}

func TestCreate_ReusesExistingCategoryIgnoringCase(t *testing.T) {
	t.Parallel()

	client, _ := stubbed(`{"category":"food"}`)
	svc, db := newTestService(t, client)
	existing := db.addCategory("U", "Food")

	exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("3"), Description: "bagel"})
	require.NoError(t, err)
	require.Equal(t, existing.ID, *exp.CategoryID)
	require.Len(t, db.categoriesOf("U"), 1)
}

func TestCreate_SuggestionFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"api error", &stubGenerator{err: errors.New("Error 429, RESOURCE_EXHAUSTED")}},
		{"malformed reply", &stubGenerator{text: "no idea, sorry"}},
		{"wrong shape", &stubGenerator{text: `["Food"]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, db := newTestService(t, gemini.NewClientWithGenerator(tt.gen))

			exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("9.99"), Description: "mystery"})
			require.NoError(t, err)
			require.NotZero(t, exp.ID)
			require.Nil(t, exp.CategoryID)
			require.Empty(t, db.categoriesOf("U"))
		})
	}
}

func TestCreate_SkipsSuggestion(t *testing.T) {
	t.Parallel()

	t.Run("explicit category", func(t *testing.T) {
		t.Parallel()
		client, gen := stubbed(`{"category":"Food"}`)
		svc, _ := newTestService(t, client)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("12"), Description: "taxi", Category: " Transport "})
		require.NoError(t, err)
		require.Equal(t, "Transport", exp.Category.Name)
		require.Zero(t, gen.callCount())
	})

	t.Run("no description", func(t *testing.T) {
		t.Parallel()
		client, gen := stubbed(`{"category":"Food"}`)
		svc, _ := newTestService(t, client)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("12"), Description: "   "})
		require.NoError(t, err)
		require.Nil(t, exp.CategoryID)
		require.Empty(t, exp.Description)
		require.Zero(t, gen.callCount())
	})

	t.Run("disabled advisor", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, gemini.Disabled())

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("12"), Description: "taxi"})
		require.NoError(t, err)
		require.Nil(t, exp.CategoryID)
	})

	t.Run("nil advisor", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, nil)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("12"), Description: "taxi"})
		require.NoError(t, err)
		require.Nil(t, exp.CategoryID)
	})
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, nil)
	theirs := db.addTag("other", "private")

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"negative amount", CreateInput{Amount: dec("-1")}},
		{"three decimals", CreateInput{Amount: dec("1.234")}},
		{"too large", CreateInput{Amount: dec("10000000000")}},
		{"long category", CreateInput{Amount: dec("1"), Category: strings.Repeat("x", 51)}},
		{"unknown tag", CreateInput{Amount: dec("1"), TagIDs: []int{424242}}},
		{"other owner's tag", CreateInput{Amount: dec("1"), TagIDs: []int{theirs.ID}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Create(context.Background(), "U", tt.in)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreate_Tags(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, nil)
	work := db.addTag("U", "work")

	exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("5"), TagIDs: []int{work.ID, work.ID}})
	require.NoError(t, err)
	require.Len(t, exp.Tags, 1)
	require.Equal(t, "work", exp.Tags[0].Name)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	t.Run("explicit category skips suggestion", func(t *testing.T) {
		t.Parallel()
		client, gen := stubbed(`{"category":"Food"}`)
		svc, _ := newTestService(t, client)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("4.50"), Description: "coffee"})
		require.NoError(t, err)
		require.Equal(t, 1, gen.callCount())

		updated, err := svc.Update(context.Background(), "U", exp.ID, UpdateInput{
			Description: Some("team lunch"),
			Category:    Some("Work Meals"),
		})
		require.NoError(t, err)
		require.Equal(t, "Work Meals", updated.Category.Name)
		require.Equal(t, "team lunch", updated.Description)
		require.Equal(t, 1, gen.callCount())
	})

	t.Run("empty category clears it", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, nil)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("1"), Category: "Misc"})
		require.NoError(t, err)

		updated, err := svc.Update(context.Background(), "U", exp.ID, UpdateInput{Category: Some("")})
		require.NoError(t, err)
		require.Nil(t, updated.CategoryID)
		require.Nil(t, updated.Category)
	})

	t.Run("changed description is re-suggested", func(t *testing.T) {
		t.Parallel()
		gen := &stubGenerator{text: `{"category":"Food"}`}
		svc, _ := newTestService(t, gemini.NewClientWithGenerator(gen))

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("4.50"), Description: "coffee"})
		require.NoError(t, err)

		gen.text = `{"category":"Transport"}`
		updated, err := svc.Update(context.Background(), "U", exp.ID, UpdateInput{Description: Some("bus fare")})
		require.NoError(t, err)
		require.Equal(t, "Transport", updated.Category.Name)
		require.Equal(t, 2, gen.callCount())
	})

	t.Run("amount-only edit keeps the category", func(t *testing.T) {
		t.Parallel()
		client, gen := stubbed(`{"category":"Food"}`)
		svc, _ := newTestService(t, client)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("4.50"), Description: "coffee"})
		require.NoError(t, err)

		updated, err := svc.Update(context.Background(), "U", exp.ID, UpdateInput{Amount: Some(dec("5.00"))})
		require.NoError(t, err)
		require.True(t, dec("5").Equal(updated.Amount))
		require.Equal(t, "Food", updated.Category.Name)
		require.Equal(t, 1, gen.callCount())
	})

	t.Run("date can be set and cleared", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, nil)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("1")})
		require.NoError(t, err)

		updated, err := svc.Update(context.Background(), "U", exp.ID, UpdateInput{Date: Some(day(2))})
		require.NoError(t, err)
		require.Equal(t, *day(2), *updated.Date)

		updated, err = svc.Update(context.Background(), "U", exp.ID, UpdateInput{Date: Some[*time.Time](nil)})
		require.NoError(t, err)
		require.Nil(t, updated.Date)
	})

	t.Run("other owner gets not found", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, nil)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("1")})
		require.NoError(t, err)

		_, err = svc.Update(context.Background(), "V", exp.ID, UpdateInput{Amount: Some(dec("2"))})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("invalid amount", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, nil)

		exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("1")})
		require.NoError(t, err)

		_, err = svc.Update(context.Background(), "U", exp.ID, UpdateInput{Amount: Some(dec("0.001"))})
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestDeleteAndGet(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	exp, err := svc.Create(context.Background(), "U", CreateInput{Amount: dec("1")})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), "V", exp.ID), repository.ErrNotFound)
	require.NoError(t, svc.Delete(context.Background(), "U", exp.ID))

	_, err = svc.Get(context.Background(), "U", exp.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, "U", CreateInput{Amount: dec("10"), Date: day(9), Category: "Food"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "U", CreateInput{Amount: dec("20"), Date: day(14), Category: "Travel"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "U", CreateInput{Amount: dec("5"), Date: day(1)})
	require.NoError(t, err)

	t.Run("monthly defaults to today", func(t *testing.T) {
		s, err := svc.Summary(ctx, "U", PeriodQuery{Kind: period.Monthly})
		require.NoError(t, err)
		require.Equal(t, *day(1), s.Range.Start)
		require.True(t, dec("35").Equal(s.Total))
		require.Equal(t, "Travel", s.ByCategory[0].Name)
	})

	t.Run("weekly", func(t *testing.T) {
		s, err := svc.Summary(ctx, "U", PeriodQuery{Kind: period.Weekly})
		require.NoError(t, err)
		require.Equal(t, *day(9), s.Range.Start)
		require.True(t, dec("30").Equal(s.Total))
	})

	t.Run("monthly honors the start day setting", func(t *testing.T) {
		db.mu.Lock()
		db.startDays["U"] = 10
		db.mu.Unlock()

		s, err := svc.Summary(ctx, "U", PeriodQuery{Kind: period.Monthly})
		require.NoError(t, err)
		require.Equal(t, *day(10), s.Range.Start)
		require.True(t, dec("20").Equal(s.Total))
	})

	t.Run("explicit range", func(t *testing.T) {
		s, err := svc.Summary(ctx, "U", PeriodQuery{Kind: period.Weekly, Start: day(1), End: day(9)})
		require.NoError(t, err)
		require.Equal(t, period.Custom, s.Range.Kind)
		require.True(t, dec("15").Equal(s.Total))
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		s, err := svc.Summary(ctx, "V", PeriodQuery{Kind: period.All})
		require.NoError(t, err)
		require.True(t, s.Total.IsZero())
		require.Empty(t, s.ByCategory)
	})
}

// fakeAdvisor returns fixed results without going through Gemini.
type fakeAdvisor struct {
	insight gemini.Insight
	err     error
	calls   int
	last    gemini.InsightInput
}

func (f *fakeAdvisor) Enabled() bool { return true }

func (f *fakeAdvisor) SuggestCategory(context.Context, string, decimal.Decimal) (string, error) {
	return "", gemini.ErrNoSuggestion
}

func (f *fakeAdvisor) GenerateInsight(_ context.Context, in gemini.InsightInput) (gemini.Insight, error) {
	f.calls++
	f.last = in
	return f.insight, f.err
}

func TestInsights(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, svc *Service) {
		t.Helper()
		ctx := context.Background()
		_, err := svc.Create(ctx, "U", CreateInput{Amount: dec("30"), Date: day(3), Category: "Food"})
		require.NoError(t, err)
		// Undated expenses stay out of every bounded period.
		_, err = svc.Create(ctx, "U", CreateInput{Amount: dec("12")})
		require.NoError(t, err)
		feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
		_, err = svc.Create(ctx, "U", CreateInput{Amount: dec("20"), Date: &feb})
		require.NoError(t, err)
	}

	t.Run("zero total short-circuits", func(t *testing.T) {
		t.Parallel()
		advisor := &fakeAdvisor{insight: gemini.Insight{Text: "unused"}}
		svc, _ := newTestService(t, advisor)

		res, err := svc.Insights(context.Background(), "U", PeriodQuery{Kind: period.Monthly})
		require.NoError(t, err)
		require.Equal(t, NoExpensesMessage, res.Insight.Text)
		require.Zero(t, advisor.calls)
	})

	t.Run("zero total skips a real client too", func(t *testing.T) {
		t.Parallel()
		client, gen := stubbed("Spending rose.")
		svc, _ := newTestService(t, client)

		res, err := svc.Insights(context.Background(), "U", PeriodQuery{Kind: period.Weekly})
		require.NoError(t, err)
		require.Equal(t, NoExpensesMessage, res.Insight.Text)
		require.Zero(t, gen.callCount())
	})

	t.Run("passes summary and previous total", func(t *testing.T) {
		t.Parallel()
		advisor := &fakeAdvisor{insight: gemini.Insight{Text: "Food led."}}
		svc, _ := newTestService(t, advisor)
		seed(t, svc)

		res, err := svc.Insights(context.Background(), "U", PeriodQuery{Kind: period.Monthly})
		require.NoError(t, err)
		require.Equal(t, "Food led.", res.Insight.Text)
		require.True(t, dec("30").Equal(res.Summary.Total))
		require.NotNil(t, res.PreviousTotal)
		require.True(t, dec("20").Equal(*res.PreviousTotal))

		require.Equal(t, 1, advisor.calls)
		require.Equal(t, "monthly", advisor.last.Period)
		require.Equal(t, "2026-03-01", advisor.last.Start)
		require.Equal(t, "2026-03-31", advisor.last.End)
		require.Len(t, advisor.last.ByCategory, 1)
		require.Equal(t, "Food", advisor.last.ByCategory[0].Name)
		require.True(t, dec("20").Equal(*advisor.last.PreviousTotal))
	})

	t.Run("all has no previous total", func(t *testing.T) {
		t.Parallel()
		advisor := &fakeAdvisor{insight: gemini.Insight{Text: "ok"}}
		svc, _ := newTestService(t, advisor)
		seed(t, svc)

		res, err := svc.Insights(context.Background(), "U", PeriodQuery{Kind: period.All})
		require.NoError(t, err)
		require.Nil(t, res.PreviousTotal)
		require.Nil(t, advisor.last.PreviousTotal)
		require.Empty(t, advisor.last.Start)
	})

	fallbacks := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", errors.New("gemini API call failed: Error 429, RESOURCE_EXHAUSTED"), RateLimitedMessage},
		{"quota message", errors.New("You exceeded your current quota"), RateLimitedMessage},
		{"generic failure", errors.New("context deadline exceeded"), UnavailableMessage},
		{"nothing usable", gemini.ErrNoInsight, FallbackMessage},
	}
	for _, tt := range fallbacks {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			advisor := &fakeAdvisor{err: tt.err}
			svc, _ := newTestService(t, advisor)
			seed(t, svc)

			res, err := svc.Insights(context.Background(), "U", PeriodQuery{Kind: period.Monthly})
			require.NoError(t, err)
			require.Equal(t, tt.want, res.Insight.Text)
		})
	}

	t.Run("disabled advisor", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t, gemini.Disabled())
		seed(t, svc)

		res, err := svc.Insights(context.Background(), "U", PeriodQuery{Kind: period.Monthly})
		require.NoError(t, err)
		require.Equal(t, DisabledMessage, res.Insight.Text)
	})

	t.Run("plain text reply through the real normalizer", func(t *testing.T) {
		t.Parallel()
		client, gen := stubbed("Spending rose 10%.")
		svc, _ := newTestService(t, client)
		seed(t, svc)

		res, err := svc.Insights(context.Background(), "U", PeriodQuery{Kind: period.Monthly})
		require.NoError(t, err)
		require.Equal(t, "Spending rose 10%.", res.Insight.Text)
		require.Equal(t, 1, gen.callCount())
		require.Contains(t, gen.prompt, "same length: 20.00")
	})
}

func TestPeriodExpenses(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	inside, err := svc.Create(ctx, "U", CreateInput{Amount: dec("1"), Date: day(10)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "U", CreateInput{Amount: dec("2"), Date: day(1)})
	require.NoError(t, err)

	r, expenses, err := svc.PeriodExpenses(ctx, "U", PeriodQuery{Kind: period.Weekly})
	require.NoError(t, err)
	require.Equal(t, *day(9), r.Start)
	require.Len(t, expenses, 1)
	require.Equal(t, inside.ID, expenses[0].ID)
}

func TestInsightInput_UsesUncategorizedBucket(t *testing.T) {
	t.Parallel()

	s := &aggregate.Summary{
		Range:      period.Resolve(period.Weekly, today, nil, nil, 1),
		Total:      dec("3"),
		ByCategory: []models.CategoryTotal{{Name: models.UncategorizedName, Total: dec("3")}},
	}
	in := InsightInput(s, nil)
	require.Equal(t, "weekly", in.Period)
	require.Equal(t, "2026-03-09", in.Start)
	require.Nil(t, in.ByCategory[0].ID)
	require.Equal(t, models.UncategorizedName, in.ByCategory[0].Name)
}
