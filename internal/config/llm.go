package config

import (
	"os"
	"time"
)

// LLMConfig configures the default model provider. Individual participants
// may override provider and model.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai, openrouter
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key,omitempty"` // prefer the env vars below
	BaseURL  string `yaml:"base_url,omitempty"`

	// TimeoutSeconds bounds every single agent call.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxOutputTokens bounds the model response length. Zero means the
	// provider default.
	MaxOutputTokens int `yaml:"max_output_tokens,omitempty"`
}

// DefaultLLMConfig returns sensible defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:       "gemini",
		Model:          "gemini-2.5-flash",
		TimeoutSeconds: 120,
	}
}

// Timeout returns the per-call timeout as a duration.
func (l LLMConfig) Timeout() time.Duration {
	if l.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// applyEnv fills the API key from the environment when the config file left
// it empty. Keys never belong in config files under version control.
func (l *LLMConfig) applyEnv() {
	if l.APIKey != "" {
		return
	}
	for _, key := range []string{"FROHLICH_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		if v := os.Getenv(key); v != "" {
			l.APIKey = v
			return
		}
	}
}
