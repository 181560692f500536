package llm

import (
	"context"
	"fmt"
	"log"

	"github.com/abhisek/quizstreak/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
// eventRepo may be nil, in which case calls are not recorded.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *log.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	p := base
	if eventRepo != nil {
		p = WithLogging(p, cfg.Provider, eventRepo, logger)
	}
	return WithRetry(p, cfg.Retry), nil
}

// NewProviderFromEnv resolves configuration from QUIZSTREAK_* variables,
// falling back to the well-known vendor API key variables.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, logger *log.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if !cfg.HasKey() {
		if discovered, ok := DiscoverConfig(); ok {
			cfg = discovered
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, eventRepo, logger)
}
