package llm

import (
	"context"

	"github.com/ppiankov/clauselens/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw model output.
	// Providers ask for JSON output where the API supports it.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is one prompt sent to a provider
type CompletionRequest struct {
	// System carries the analysis instructions
	System string

	// Prompt carries the contract and the per-request requirements
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	Temperature float64
}

// CompletionResponse is the raw output of one completion
type CompletionResponse struct {
	// Content is the model output, expected to hold a JSON object
	Content string

	// Model is the model that generated the response
	Model string

	// Usage is zero when the provider does not report token counts
	Usage model.TokenUsage
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for a single API request
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Model:       model.DefaultModelID,
		Timeout:     120,
		MaxTokens:   4096,
		Temperature: DefaultTemperature,
	}
}

// DefaultTemperature is the sampling temperature of analysis requests
const DefaultTemperature = 0.5
