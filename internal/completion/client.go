package completion

import (
	"context"
	"fmt"
	"log"

	"github.com/interview-prep/backend/internal/config"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a prompt.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response holds the raw completion text and token usage.
type Response struct {
	Content      string `json:"content"`
	PromptTokens int    `json:"prompt_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Client is the interface every completion provider satisfies.
type Client interface {
	Complete(ctx context.Context, messages []Message) (*Response, error)
}

// NewFromConfig builds the configured client chain. It returns a nil Client
// when the provider is "none", in which case callers score lexically.
func NewFromConfig(cfg config.CompletionConfig) (Client, string, error) {
	if cfg.Provider == "none" {
		log.Println("Completion disabled; duplicate checks use lexical scoring only")
		return nil, "none", nil
	}

	primary, err := newProvider(cfg.Provider, cfg.Model, cfg.APIKey, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}
	log.Printf("Completion using %s: %s", cfg.Provider, cfg.Model)

	if cfg.FallbackProvider == "" {
		return primary, cfg.Model, nil
	}

	fallback, err := newProvider(cfg.FallbackProvider, cfg.FallbackModel, cfg.FallbackAPIKey, cfg)
	if err != nil {
		log.Printf("WARN: failed to create fallback %s client: %v", cfg.FallbackProvider, err)
		return primary, cfg.Model, nil
	}
	log.Printf("Completion fallback %s: %s", cfg.FallbackProvider, cfg.FallbackModel)
	return NewFallbackClient(primary, fallback), cfg.Model, nil
}

func newProvider(provider, model, apiKey string, cfg config.CompletionConfig) (Client, error) {
	switch provider {
	case "anthropic":
		return NewAnthropicClient(apiKey, model, cfg.MaxTokens, cfg.Temperature, cfg.Timeout())
	case "openai":
		return NewOpenAIClient(apiKey, model, cfg.MaxTokens, cfg.Temperature, cfg.Timeout())
	case "gemini":
		return NewGeminiClient(apiKey, model, cfg.MaxTokens, cfg.Temperature, cfg.Timeout())
	case "cli":
		return NewCLIClient(cfg.CLIPath, cfg.Timeout()), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// splitSystem separates system instructions from the conversational turns.
// Providers with a dedicated system field take the joined system text.
func splitSystem(messages []Message) (string, []Message) {
	var system string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
