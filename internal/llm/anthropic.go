package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/util"
)

// DefaultAnthropicModel is used when no Claude model is configured
const DefaultAnthropicModel = "claude-3-5-sonnet-20241022"

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	client *anthropic.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		}),
	}
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(config.BaseURL, "/")))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(config.APIKey, opts...),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	// Minimal completion; the Messages API has no cheaper health check
	_, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(p.model("")),
		MaxTokens: 10,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{anthropic.NewTextMessageContent("Hi")}},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Anthropic API check failed: %v\n", err)
		return false
	}
	return true
}

// Complete runs one Messages API call. Claude has no JSON mode, so the
// system prompt carries the output contract.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	modelID := p.model(req.Model)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	temperature := float32(req.Temperature)

	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(modelID),
		System: req.System,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.Prompt)},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, newProviderError(p.Name(), anthropicStatus(err), err)
	}

	var parts []string
	for _, c := range resp.Content {
		if c.Text != nil {
			parts = append(parts, *c.Text)
		}
	}
	content := strings.TrimSpace(strings.Join(parts, ""))
	if content == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrNoContent)
	}

	usedModel := string(resp.Model)
	if usedModel == "" {
		usedModel = modelID
	}

	return &CompletionResponse{
		Content: content,
		Model:   usedModel,
		Usage: model.TokenUsage{
			Input:  resp.Usage.InputTokens,
			Output: resp.Usage.OutputTokens,
			Total:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

func (p *AnthropicProvider) model(requested string) string {
	// OpenAI model ids from the request schema mean "use the configured model"
	if requested != "" && strings.HasPrefix(requested, "claude") {
		return requested
	}
	if p.config.Model != "" && strings.HasPrefix(p.config.Model, "claude") {
		return p.config.Model
	}
	return DefaultAnthropicModel
}

// anthropicStatus maps go-anthropic errors to an HTTP status
func anthropicStatus(err error) int {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsRateLimitErr():
			return http.StatusTooManyRequests
		case apiErr.IsInvalidRequestErr():
			return http.StatusBadRequest
		case apiErr.IsAuthenticationErr():
			return http.StatusUnauthorized
		case apiErr.IsPermissionErr():
			return http.StatusForbidden
		case apiErr.IsNotFoundErr():
			return http.StatusNotFound
		case apiErr.IsOverloadedErr():
			return 529
		default:
			return http.StatusInternalServerError
		}
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}
