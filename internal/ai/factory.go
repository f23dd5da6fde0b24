// factory.go - Completion provider factory for creating provider instances

package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bosocmputer/account_statement_ai/configs"
)

// CreateCompleter creates a completion provider based on configuration
func CreateCompleter() (Completer, error) {
	return NewCompleter(CompleterConfig{
		Provider:      configs.LLM_PROVIDER,
		GeminiAPIKey:  configs.GEMINI_API_KEY,
		GeminiModel:   configs.MODEL_NAME,
		OpenAIAPIKey:  configs.OPENAI_API_KEY,
		OpenAIModel:   configs.OPENAI_MODEL,
		OpenAIBaseURL: configs.OPENAI_BASE_URL,
	})
}

// CreateCompleterWithFallback creates the configured provider and, when the
// other provider has an API key, wraps both so a failed call is retried once
// on the fallback
func CreateCompleterWithFallback() (Completer, error) {
	primary, err := CreateCompleter()
	if err != nil {
		return nil, err
	}

	cfg := CompleterConfig{
		GeminiAPIKey:  configs.GEMINI_API_KEY,
		GeminiModel:   configs.MODEL_NAME,
		OpenAIAPIKey:  configs.OPENAI_API_KEY,
		OpenAIModel:   configs.OPENAI_MODEL,
		OpenAIBaseURL: configs.OPENAI_BASE_URL,
	}
	switch primary.Name() {
	case "gemini":
		if cfg.OpenAIAPIKey == "" {
			return primary, nil
		}
		cfg.Provider = "openai"
	case "openai":
		if cfg.GeminiAPIKey == "" {
			return primary, nil
		}
		cfg.Provider = "gemini"
	default:
		return primary, nil
	}

	fallback, err := NewCompleter(cfg)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.Provider).Msg("⚠️ Fallback provider not available")
		return primary, nil
	}
	log.Info().Str("provider", fallback.Name()).Msg("✅ Fallback provider configured")
	return NewFallbackCompleter(primary, fallback), nil
}

// FallbackCompleter sends a call to Fallback when Primary returns an error.
// Empty answers are returned as they are.
type FallbackCompleter struct {
	Primary  Completer
	Fallback Completer
}

// NewFallbackCompleter pairs primary with fallback
func NewFallbackCompleter(primary, fallback Completer) *FallbackCompleter {
	return &FallbackCompleter{Primary: primary, Fallback: fallback}
}

func (f *FallbackCompleter) Name() string {
	return f.Primary.Name() + "+" + f.Fallback.Name()
}

func (f *FallbackCompleter) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	text, err := f.Primary.Complete(ctx, messages, opts)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	log.Warn().Err(err).Str("primary", f.Primary.Name()).Str("fallback", f.Fallback.Name()).Msg("🔄 Primary provider failed, trying fallback")
	text, fallbackErr := f.Fallback.Complete(ctx, messages, opts)
	if fallbackErr != nil {
		return "", fmt.Errorf("%s: %w; %s: %v", f.Primary.Name(), err, f.Fallback.Name(), fallbackErr)
	}
	return text, nil
}

// NewCompleter creates a completion provider from an explicit config
func NewCompleter(cfg CompleterConfig) (Completer, error) {
	switch cfg.Provider {
	case "gemini":
		log.Info().Str("model", cfg.GeminiModel).Msg("🔵 Creating Gemini completion provider")
		return NewGeminiCompleter(cfg.GeminiAPIKey, cfg.GeminiModel), nil

	case "openai":
		log.Info().Str("model", cfg.OpenAIModel).Msg("🟢 Creating OpenAI completion provider")
		completer, err := NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		return completer, nil

	default:
		return nil, fmt.Errorf("unsupported completion provider: %s (supported: gemini, openai)", cfg.Provider)
	}
}
