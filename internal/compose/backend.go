package compose

import (
	"context"
	"fmt"
	"iter"

	"github.com/pders01/zpost/internal/config"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Request is a single chat-style generation call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	Stream      bool
}

// Backend is a text-generation service.
type Backend interface {
	// Configured reports whether a credential is available. Generate is
	// never called on an unconfigured backend.
	Configured() bool

	// Generate yields the response as text deltas. A non-streaming call
	// yields the whole text once. An error ends the sequence.
	Generate(ctx context.Context, req Request) iter.Seq2[string, error]
}

// NewBackend builds the backend for the configured provider.
func NewBackend(cfg *config.Config) (Backend, error) {
	apiKey := cfg.APIKey()
	model := cfg.LLM.Model
	if model == "" {
		model = config.DefaultModel(cfg.LLM.Provider)
	}

	switch cfg.LLM.Provider {
	case "anthropic":
		return NewAnthropicBackend(apiKey, cfg.LLM.BaseURL, model), nil
	case "openrouter":
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
		return NewOpenAIBackend(apiKey, baseURL, model), nil
	case "openai", "":
		return NewOpenAIBackend(apiKey, cfg.LLM.BaseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}
