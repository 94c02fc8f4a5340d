package completion

import (
	"context"
	"encoding/json"
)

// ── MockClient: Local Development ─────────────────────────

// MockClient answers every prompt with a well-formed "no duplicates" verdict,
// so the AI path can be exercised end to end without network access.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Complete(ctx context.Context, messages []Message) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"similarities": []any{},
		"overallAssessment": map[string]any{
			"isDuplicate":    false,
			"confidence":     0.5,
			"recommendation": "save",
			"reasoning":      "[Mock] No comparison performed.",
		},
	}
	data, _ := json.Marshal(body)

	prompt := 0
	for _, msg := range messages {
		prompt += len(msg.Content) / 4
	}

	return &Response{
		Content:      "```json\n" + string(data) + "\n```",
		PromptTokens: prompt,
		OutputTokens: len(data) / 4,
	}, nil
}
