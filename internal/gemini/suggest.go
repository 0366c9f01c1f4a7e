package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"gitlab.com/yelinaung/expense-api/internal/logger"
)

var tracer = otel.Tracer("gitlab.com/yelinaung/expense-api/internal/gemini")

// SuggestCategory asks Gemini for a category name for an expense.
// It returns ErrNoSuggestion when the reply cannot be read as one.
func (c *Client) SuggestCategory(ctx context.Context, description string, amount decimal.Decimal) (string, error) {
	ctx, span := tracer.Start(ctx, "gemini.SuggestCategory")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", c.model))

	descHash := hashDescription(description)
	logger.Log.Debug().
		Str("description_hash", descHash).
		Msg("SuggestCategory called")

	if description == "" {
		return "", fmt.Errorf("description is required")
	}

	temp := float32(0.3)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(200),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: jsonOnlyInstruction}},
		},
		ResponseMIMEType: "application/json",
	}

	text, err := c.generate(ctx, CategoryPrompt(description, amount), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		logger.Log.Warn().Err(err).
			Str("description_hash", descHash).
			Bool("rate_limited", IsRateLimited(err)).
			Msg("SuggestCategory: Gemini API call failed")
		return "", err
	}

	name, ok := ParseCategory(text)
	if ok {
		name = cleanCategoryName(name)
	}
	if !ok || name == "" {
		span.SetStatus(codes.Error, "no suggestion")
		logger.Log.Warn().
			Str("description_hash", descHash).
			Int("response_length", len(text)).
			Msg("SuggestCategory: no category in Gemini response")
		return "", ErrNoSuggestion
	}

	logger.Log.Debug().
		Str("description_hash", descHash).
		Str("suggested_category", name).
		Msg("SuggestCategory: parsed Gemini suggestion")

	return name, nil
}

// GenerateInsight asks Gemini for a short narrative about a spending summary.
// It returns ErrNoInsight when the reply holds nothing usable.
func (c *Client) GenerateInsight(ctx context.Context, in InsightInput) (Insight, error) {
	ctx, span := tracer.Start(ctx, "gemini.GenerateInsight")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", c.model),
		attribute.String("insight.period", in.Period),
		attribute.Int("insight.categories", len(in.ByCategory)),
	)

	temp := float32(0.7)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(500),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: insightInstruction}},
		},
	}

	text, err := c.generate(ctx, InsightPrompt(in), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		logger.Log.Warn().Err(err).
			Bool("rate_limited", IsRateLimited(err)).
			Msg("GenerateInsight: Gemini API call failed")
		return Insight{}, err
	}

	insight, ok := ParseInsight(text)
	if !ok {
		span.SetStatus(codes.Error, "no insight")
		logger.Log.Warn().
			Int("response_length", len(text)).
			Msg("GenerateInsight: no usable text in Gemini response")
		return Insight{}, ErrNoInsight
	}

	logger.Log.Debug().
		Str("insight", logger.SanitizeText(insight.Text)).
		Msg("GenerateInsight: parsed Gemini insight")

	return insight, nil
}

// hashDescription creates a SHA256 hash of the description for secure logging.
func hashDescription(description string) string {
	hash := sha256.Sum256([]byte(description))
	return hex.EncodeToString(hash[:8]) // First 8 bytes for brevity.
}
