package llm

import (
	"context"
	"fmt"
)

// Provider names accepted by NewProvider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// defaultModels is used when no model is configured.
var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4.1",
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderGemini:    "gemini-2.0-flash",
	ProviderMock:      "mock",
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// DefaultModel returns the model used for provider when none is set.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// NewProvider creates a Provider from configuration.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(cfg.Provider)
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case ProviderOpenAI:
		p, err = NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, model)
	case ProviderAnthropic:
		p, err = NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, model)
	case ProviderGemini:
		p, err = NewGeminiProvider(ctx, cfg.APIKey, model)
	case ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return p, nil
}
