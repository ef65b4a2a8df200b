package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name means LLM analysis is disabled: (nil, nil).
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(ctx, config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, gemini, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config. Missing API keys
// are read from the provider's conventional environment variable.
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	cfg := Config{
		Provider:    llmCfg.Provider,
		Model:       llmCfg.Model,
		APIKey:      llmCfg.APIKey,
		BaseURL:     llmCfg.BaseURL,
		Timeout:     llmCfg.Timeout,
		MaxTokens:   llmCfg.MaxTokens,
		Temperature: llmCfg.Temperature,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
		NoProxy:     httpCfg.NoProxy,
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(apiKeyEnv(cfg.Provider))
	}
	if strings.EqualFold(cfg.Provider, "ollama") && cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}

	return cfg
}

func apiKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	case "ollama":
		return "OLLAMA_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// SupportedModels lists the OpenAI model ids the analyze request accepts
var SupportedModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
	"chatgpt-4o-latest",
	"gpt-4-turbo",
	"gpt-4",
	"gpt-3.5-turbo",
	"o1",
	"o1-preview",
	"o1-mini",
}
