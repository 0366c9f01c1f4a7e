// Package gemini provides the text-generation collaborator backed by the
// Google Gemini API, along with prompt templates and tolerant parsing of
// model output.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 15 * time.Second

var (
	// ErrDisabled is returned by every call on a disabled client.
	ErrDisabled = errors.New("gemini is disabled: no API key configured")
	// ErrNoSuggestion is returned when the model output holds no category.
	ErrNoSuggestion = errors.New("no category suggestion in model output")
	// ErrNoInsight is returned when the model output holds no usable insight.
	ErrNoInsight = errors.New("no insight in model output")
)

// ContentGenerator defines the interface for generating content via Gemini.
// This abstraction enables testing without making actual API calls.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// modelsAdapter wraps *genai.Models to implement ContentGenerator.
type modelsAdapter struct {
	models *genai.Models
}

func (m *modelsAdapter) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	resp, err := m.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai.GenerateContent: %w", err)
	}
	return resp, nil
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client wraps the Gemini API client. The zero value is not usable; build one
// with NewClient, NewClientWithGenerator or Disabled.
type Client struct {
	client    *genai.Client
	generator ContentGenerator
	model     string
	timeout   time.Duration
}

// NewClient creates a new Gemini client with the provided API key.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := NewClientWithGenerator(&modelsAdapter{models: client.Models}, opts...)
	c.client = client
	return c, nil
}

// NewClientWithGenerator creates a Client with a custom ContentGenerator.
// This is primarily used for testing with mock generators.
func NewClientWithGenerator(generator ContentGenerator, opts ...Option) *Client {
	c := &Client{
		generator: generator,
		model:     DefaultModel,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Disabled returns a client whose calls all fail with ErrDisabled.
func Disabled() *Client {
	return &Client{model: DefaultModel, timeout: DefaultTimeout}
}

// Enabled reports whether the client can reach a model.
func (c *Client) Enabled() bool {
	return c != nil && c.generator != nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// GenerativeClient returns the underlying genai client for advanced usage.
// It is nil for disabled and injected-generator clients.
func (c *Client) GenerativeClient() *genai.Client {
	return c.client
}

// generate sends one prompt and returns the concatenated response text.
func (c *Client) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response from Gemini")
	}

	return strings.TrimSpace(resp.Text()), nil
}

// IsRateLimited reports whether err looks like a quota or rate-limit
// rejection from the API.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "ratelimit", "quota", "resource exhausted", "resource_exhausted", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
