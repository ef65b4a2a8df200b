package llm

import (
	"fmt"
	"strings"
)

// DefaultOllamaURL is the local Ollama endpoint
const DefaultOllamaURL = "http://localhost:11434"

// NewOllamaProvider creates a provider for a local Ollama server through its
// OpenAI-compatible /v1 API, which also reports token usage
func NewOllamaProvider(config Config) (*OpenAIProvider, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	config.BaseURL = baseURL

	// Ollama ignores the key but the client requires one
	if config.APIKey == "" {
		config.APIKey = "ollama"
	}

	// Local models can be slow
	if config.Timeout == 0 {
		config.Timeout = 300
	}

	return newOpenAICompatible("ollama", config), nil
}
