package llm

import "context"

// Client is a minimal text-in text-out interface over a chat model.
// Adjudication only ever sends a single self-contained prompt, so the
// interface carries no conversation state.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures a model provider.
type Config struct {
	// Provider is "openai" or "anthropic".
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint, e.g. for OpenAI-compatible
	// local servers. Empty uses the provider default.
	BaseURL string
	// Temperature is kept low so eligibility verdicts stay near-deterministic.
	Temperature float32
	MaxTokens   int
}

// DefaultConfig returns the configuration used for eligibility adjudication.
func DefaultConfig(provider string, apiKey string, model string) Config {
	return Config{
		Provider:    provider,
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.1,
		MaxTokens:   1024,
	}
}
