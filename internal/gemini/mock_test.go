package gemini

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// mockGenerator returns a canned response and records the last request.
type mockGenerator struct {
	response *genai.GenerateContentResponse
	err      error

	mu         sync.Mutex
	calls      int
	lastModel  string
	lastPrompt string
	lastConfig *genai.GenerateContentConfig
	hadDeadline bool
}

func (m *mockGenerator) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastModel = model
	m.lastConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		m.lastPrompt = contents[0].Parts[0].Text
	}
	_, m.hadDeadline = ctx.Deadline()

	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: text},
					},
				},
			},
		},
	}
}
