package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/expense-api/internal/aggregate"
	"gitlab.com/yelinaung/expense-api/internal/expense"
	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/period"
)

// money encodes an amount as a JSON string with two decimals.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return json.Marshal(decimal.Decimal(m).StringFixed(2))
}

// optional records whether a JSON field was present. An explicit null is
// present with the zero value.
type optional[T any] struct {
	Set   bool
	Value T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(period.DateLayout)
	return &s
}

func boundString(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	return dateString(&t)
}

type categoryJSON struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func categoryResponse(c *models.Category) any {
	return categoryJSON{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

type tagJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func tagResponse(t *models.Tag) any {
	return tagJSON{ID: t.ID, Name: t.Name}
}

type expenseJSON struct {
	ID           int       `json:"id"`
	Amount       money     `json:"amount"`
	Description  string    `json:"description"`
	Date         *string   `json:"date"`
	Category     *int      `json:"category"`
	CategoryName *string   `json:"category_name"`
	Tags         []tagJSON `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
}

func expenseResponse(e *models.Expense) expenseJSON {
	out := expenseJSON{
		ID:          e.ID,
		Amount:      money(e.Amount),
		Description: e.Description,
		Date:        dateString(e.Date),
		Category:    e.CategoryID,
		Tags:        make([]tagJSON, 0, len(e.Tags)),
		CreatedAt:   e.CreatedAt,
	}
	if e.Category != nil {
		out.CategoryName = &e.Category.Name
	}
	for _, t := range e.Tags {
		out.Tags = append(out.Tags, tagJSON{ID: t.ID, Name: t.Name})
	}
	return out
}

func expenseList(expenses []models.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(expenses))
	for i := range expenses {
		out = append(out, expenseResponse(&expenses[i]))
	}
	return out
}

// categoryRef accepts either a category id or a free-text category name.
type categoryRef struct {
	ID   *int
	Name string
}

func (c *categoryRef) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = categoryRef{}
		return nil
	}
	var id int
	if err := json.Unmarshal(b, &id); err == nil {
		c.ID = &id
		return nil
	}
	return json.Unmarshal(b, &c.Name)
}

type expenseRequest struct {
	Amount      optional[decimal.Decimal] `json:"amount"`
	Description optional[string]          `json:"description"`
	Date        optional[*string]         `json:"date"`
	Category    optional[categoryRef]     `json:"category"`
	Tags        optional[[]int]           `json:"tags"`
}

type settingsJSON struct {
	MonthStartDate int        `json:"month_start_date"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

func settingsResponse(s *models.UserSetting) settingsJSON {
	return settingsJSON{
		MonthStartDate: s.MonthStartDate,
		CreatedAt:      &s.CreatedAt,
		UpdatedAt:      &s.UpdatedAt,
	}
}

type settingsRequest struct {
	MonthStartDate *int `json:"month_start_date"`
}

type categoryTotalJSON struct {
	ID    *int   `json:"id"`
	Name  string `json:"name"`
	Total money  `json:"total"`
}

type dailyTotalJSON struct {
	Date  string `json:"date"`
	Total money  `json:"total"`
}

type summaryJSON struct {
	Period     string              `json:"period"`
	Start      *string             `json:"start"`
	End        *string             `json:"end"`
	Total      money               `json:"total"`
	ByCategory []categoryTotalJSON `json:"by_category"`
	Daily      []dailyTotalJSON    `json:"daily"`
}

func summaryResponse(s *aggregate.Summary) summaryJSON {
	out := summaryJSON{
		Period:     s.Range.Label(),
		Start:      boundString(s.Range.Start),
		End:        boundString(s.Range.End),
		Total:      money(s.Total),
		ByCategory: make([]categoryTotalJSON, 0, len(s.ByCategory)),
		Daily:      make([]dailyTotalJSON, 0, len(s.Daily)),
	}
	for _, ct := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryTotalJSON{ID: ct.CategoryID, Name: ct.Name, Total: money(ct.Total)})
	}
	for _, d := range s.Daily {
		out.Daily = append(out.Daily, dailyTotalJSON{Date: d.Date.Format(period.DateLayout), Total: money(d.Total)})
	}
	return out
}

type cardsJSON struct {
	TotalSpent  money   `json:"total_spent"`
	TopCategory *string `json:"top_category"`
}

type breakdownJSON struct {
	Labels []string `json:"labels"`
	Values []money  `json:"values"`
}

type trendJSON struct {
	Dates   []string `json:"dates"`
	Amounts []money  `json:"amounts"`
}

type chartsJSON struct {
	CategoryBreakdown breakdownJSON `json:"category_breakdown"`
	DailyTrend        trendJSON     `json:"daily_trend"`
}

type insightJSON struct {
	Text string `json:"text"`
}

type insightsJSON struct {
	Summary       summaryJSON `json:"summary"`
	PreviousTotal *money      `json:"previous_total"`
	Cards         cardsJSON   `json:"cards"`
	Charts        chartsJSON  `json:"charts"`
	Insight       insightJSON `json:"insight"`
}

func insightsResponse(res *expense.InsightsResult) insightsJSON {
	s := res.Summary
	out := insightsJSON{
		Summary: summaryResponse(s),
		Cards:   cardsJSON{TotalSpent: money(s.Total)},
		Charts: chartsJSON{
			CategoryBreakdown: breakdownJSON{Labels: []string{}, Values: []money{}},
			DailyTrend:        trendJSON{Dates: []string{}, Amounts: []money{}},
		},
		Insight: insightJSON{Text: res.Insight.Text},
	}
	if res.PreviousTotal != nil {
		prev := money(*res.PreviousTotal)
		out.PreviousTotal = &prev
	}
	if top, ok := s.TopCategory(); ok {
		out.Cards.TopCategory = &top.Name
	}
	for _, ct := range s.ByCategory {
		out.Charts.CategoryBreakdown.Labels = append(out.Charts.CategoryBreakdown.Labels, ct.Name)
		out.Charts.CategoryBreakdown.Values = append(out.Charts.CategoryBreakdown.Values, money(ct.Total))
	}
	for _, d := range s.Daily {
		out.Charts.DailyTrend.Dates = append(out.Charts.DailyTrend.Dates, d.Date.Format(period.DateLayout))
		out.Charts.DailyTrend.Amounts = append(out.Charts.DailyTrend.Amounts, money(d.Total))
	}
	return out
}
