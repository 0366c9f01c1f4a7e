package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength is the maximum description length embedded in a prompt.
const MaxDescriptionLength = 200

// MaxCategoryNameLength is the maximum allowed length for category names.
const MaxCategoryNameLength = 50

const jsonOnlyInstruction = "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a single JSON object."

const insightInstruction = "You are a concise personal finance assistant. Write for the person who made these expenses."

// CategoryPrompt renders the category-suggestion prompt.
func CategoryPrompt(description string, amount decimal.Decimal) string {
	return fmt.Sprintf(`Suggest a spending category for this expense.

Description: "%s"
Amount: %s

Rules:
- Use a short, general category name such as "Food", "Transport", "Bills", "Shopping", "Health" or "Entertainment"
- Use at most 3 words
- Do not include the amount or the description in the category

Return JSON only:
{"category": "category name"}`, SanitizeForPrompt(description, MaxDescriptionLength), amount.StringFixed(2))
}

// CategoryLine is one by-category row sent to the insight prompt.
type CategoryLine struct {
	ID    *int            `json:"id"`
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// InsightInput is the structured spending summary the insight prompt is
// built from. PreviousTotal is nil when there is no comparable period.
type InsightInput struct {
	Period        string
	Start         string
	End           string
	Total         decimal.Decimal
	ByCategory    []CategoryLine
	PreviousTotal *decimal.Decimal
}

// InsightPrompt renders the insight prompt.
func InsightPrompt(in InsightInput) string {
	lines := make([]CategoryLine, 0, len(in.ByCategory))
	for _, l := range in.ByCategory {
		l.Name = SanitizeCategoryName(l.Name)
		lines = append(lines, l)
	}
	byCategory, err := json.Marshal(lines)
	if err != nil {
		byCategory = []byte("[]")
	}

	previous := "null"
	if in.PreviousTotal != nil {
		previous = in.PreviousTotal.StringFixed(2)
	}

	start, end := in.Start, in.End
	if start == "" {
		start = "null"
	}
	if end == "" {
		end = "null"
	}

	return fmt.Sprintf(`Here is a spending summary.

Period: %s
Start date: %s
End date: %s
Total spent: %s
Spending by category (JSON): %s
Total spent in the previous period of the same length: %s

Write 2-3 short sentences of insight:
- Mention the largest category and its share of the total
- If the previous total is not null, say whether spending went up or down and by roughly how much
- Give one practical suggestion

Return JSON only:
{"text": "your insight"}`,
		in.Period, start, end, in.Total.StringFixed(2), byCategory, previous)
}

// SanitizeForPrompt sanitizes user input to prevent prompt injection attacks.
// It removes or escapes characters that could break prompt structure,
// and truncates to the given maxLength.
func SanitizeForPrompt(input string, maxLength int) string {
	// Remove or escape quotes that could break prompt structure.
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")

	input = strings.ReplaceAll(input, "\x00", "")

	// Collapses newlines and runs of spaces into single spaces.
	input = strings.Join(strings.Fields(input), " ")

	return truncateRunes(input, maxLength)
}

// SanitizeCategoryName sanitizes a category name for safe embedding in prompts.
func SanitizeCategoryName(name string) string {
	return SanitizeForPrompt(name, MaxCategoryNameLength)
}

// cleanCategoryName normalizes a suggested name before it is stored.
func cleanCategoryName(name string) string {
	name = strings.Trim(strings.Join(strings.Fields(name), " "), `"'`)
	return truncateRunes(name, MaxCategoryNameLength)
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
