package llm

import (
	"context"
	"fmt"
)

// Provider identifies a model backend.
type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
)

// NewClient constructs a provider client by name.
func NewClient(ctx context.Context, provider string, opts Options) (Client, error) {
	switch Provider(provider) {
	case ProviderGemini:
		return NewGeminiClient(ctx, opts)
	case ProviderOpenAI:
		return NewOpenAICompatClient(opts)
	case ProviderOpenRouter:
		if opts.BaseURL == "" {
			opts.BaseURL = "https://openrouter.ai/api/v1"
		}
		return NewOpenAICompatClient(opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
