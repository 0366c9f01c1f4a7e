package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/yelinaung/expense-api/internal/models"
	"gitlab.com/yelinaung/expense-api/internal/period"
)

var csvHeader = []string{"ID", "Date", "Amount", "Description", "Category", "Tags"}

// ExpensesCSV writes expenses as CSV with a header row. Undated expenses get
// an empty Date column.
func ExpensesCSV(expenses []models.Expense) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range expenses {
		e := &expenses[i]

		categoryName := models.UncategorizedName
		if e.Category != nil {
			categoryName = e.Category.Name
		}
		date := ""
		if e.Date != nil {
			date = e.Date.Format(period.DateLayout)
		}
		tags := make([]string, len(e.Tags))
		for j, t := range e.Tags {
			tags[j] = t.Name
		}

		row := []string{
			strconv.Itoa(e.ID),
			date,
			e.Amount.StringFixed(2),
			e.Description,
			categoryName,
			strings.Join(tags, ";"),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Filename builds a download name like "expenses_monthly_2026-03-01.csv".
func Filename(prefix string, r period.Range, ext string) string {
	if !r.Bounded() {
		return fmt.Sprintf("%s_%s.%s", prefix, r.Label(), ext)
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, r.Label(), r.Start.Format(period.DateLayout), ext)
}

// ChartTitle describes r for a chart heading.
func ChartTitle(r period.Range) string {
	if !r.Bounded() {
		return "Expense breakdown (all time)"
	}
	return fmt.Sprintf("Expense breakdown %s to %s",
		r.Start.Format("Jan 2"), r.End.Format("Jan 2, 2006"))
}
