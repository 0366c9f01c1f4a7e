package gemini

import (
	"encoding/json"
	"strings"
)

// extractStage tries to recover one JSON value from model output.
type extractStage func(text string) (any, bool)

// extractStages run in order; the first success wins.
var extractStages = []extractStage{
	parseDirect,
	parseSpan('{', '}'),
	parseSpan('[', ']'),
}

// extractJSON runs the extraction cascade over text.
func extractJSON(text string) (any, bool) {
	for _, stage := range extractStages {
		if v, ok := stage(text); ok {
			return v, true
		}
	}
	return nil, false
}

func parseDirect(text string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	return v, true
}

// parseSpan parses the greedy span from the first open byte to the last
// close byte. Gemini sometimes returns responses like "Here is the JSON:\n{...}"
// even when asked for JSON only.
func parseSpan(open, closing byte) extractStage {
	return func(text string) (any, bool) {
		start := strings.IndexByte(text, open)
		if start == -1 {
			return nil, false
		}
		end := strings.LastIndexByte(text, closing)
		if end <= start {
			return nil, false
		}
		return parseDirect(text[start : end+1])
	}
}

// stringField returns the first key of m holding a non-blank string.
func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// ParseCategory extracts a category name from model output. It never fails;
// anything it cannot read yields false.
func ParseCategory(raw string) (string, bool) {
	v, ok := extractJSON(raw)
	if !ok {
		return "", false
	}

	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	if name, ok := stringField(m, "category", "Category", "result"); ok {
		return name, true
	}
	if nested, ok := m["result"].(map[string]any); ok {
		return stringField(nested, "category", "Category")
	}
	return "", false
}

// Insight is a narrative spending summary.
type Insight struct {
	Text string `json:"text"`
}

// ParseInsight extracts an insight from model output. Output that is not
// JSON at all is taken as the insight text itself. Parsed JSON without a
// usable string yields false so the caller can fall back.
func ParseInsight(raw string) (Insight, bool) {
	v, ok := extractJSON(raw)
	if !ok {
		text := strings.TrimSpace(raw)
		return Insight{Text: text}, text != ""
	}

	switch val := v.(type) {
	case map[string]any:
		if text, ok := stringField(val, "text", "insight", "summary", "result"); ok {
			return Insight{Text: text}, true
		}
	case string:
		if text := strings.TrimSpace(val); text != "" {
			return Insight{Text: text}, true
		}
	}
	return Insight{}, false
}
