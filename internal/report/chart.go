// Package report renders period breakdowns as PNG charts and expense lists
// as CSV downloads.
package report

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"

	"gitlab.com/yelinaung/expense-api/internal/models"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no expenses to chart")

// CategoryPieChart draws the by-category totals as a pie chart and returns
// the PNG bytes. Rows with a non-positive total are left out.
func CategoryPieChart(rows []models.CategoryTotal, title string) ([]byte, error) {
	var values []float64
	var names []string
	for _, row := range rows {
		if !row.Total.IsPositive() {
			continue
		}
		values = append(values, row.Total.InexactFloat64())
		names = append(names, fmt.Sprintf("%s (%s)", row.Name, row.Total.StringFixed(2)))
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: title,
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}
