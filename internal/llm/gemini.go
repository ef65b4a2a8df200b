package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/ppiankov/clauselens/internal/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no Gemini model is configured
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// IsAvailable checks if the configured model can be described
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.GenerativeModel(p.model("")).Info(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gemini API check failed: %v\n", err)
		return false
	}
	return true
}

// Complete runs one generation with a JSON response MIME type
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	modelID := p.model(req.Model)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	gm := p.client.GenerativeModel(modelID)
	gm.SetTemperature(float32(req.Temperature))
	if maxTokens > 0 {
		gm.SetMaxOutputTokens(int32(maxTokens))
	}
	gm.ResponseMIMEType = "application/json"
	if req.System != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := gm.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, newProviderError(p.Name(), geminiStatus(err), err)
	}

	var b strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNoContent)
	}

	out := &CompletionResponse{Content: content, Model: modelID}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = model.TokenUsage{
			Input:  int(u.PromptTokenCount),
			Output: int(u.CandidatesTokenCount),
			Total:  int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func (p *GeminiProvider) model(requested string) string {
	if strings.HasPrefix(requested, "gemini") {
		return requested
	}
	if strings.HasPrefix(p.config.Model, "gemini") {
		return p.config.Model
	}
	return DefaultGeminiModel
}

// geminiStatus extracts the HTTP status from Google API errors
func geminiStatus(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return 0
}
