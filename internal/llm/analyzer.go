package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/clauselens/internal/cache"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/validate"
)

// analyzeSleepFunc waits between attempts; tests replace it
var analyzeSleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RateLimiter throttles calls per key (the provider name)
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// AnalyzerOptions tunes an Analyzer
type AnalyzerOptions struct {
	MaxRetries  int           // extra attempts after the first
	RetryDelay  time.Duration // multiplied by the attempt number
	Temperature float64
	MaxTokens   int

	// StrictSchema rejects analyses that fail validation; otherwise the
	// violations are returned as warnings
	StrictSchema bool

	Cache    cache.Cache // nil disables caching
	CacheTTL time.Duration

	Limiter RateLimiter // nil disables throttling

	// Logf receives retry progress; nil discards it
	Logf func(format string, args ...any)
}

// OptionsFromModel builds analyzer options from configuration
func OptionsFromModel(cfg model.LLMConfig) AnalyzerOptions {
	return AnalyzerOptions{
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		StrictSchema: cfg.StrictSchema,
	}
}

// StderrLogf writes analyzer progress to stderr
func StderrLogf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Analyzer turns contract text into a validated AnalysisResult through a
// Provider, retrying transient failures
type Analyzer struct {
	provider  Provider
	validator *validate.Validator
	opts      AnalyzerOptions
}

// NewAnalyzer creates an analyzer. A nil provider yields an analyzer whose
// Analyze always returns ErrProviderDisabled.
func NewAnalyzer(provider Provider, opts AnalyzerOptions) *Analyzer {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	return &Analyzer{
		provider:  provider,
		validator: validate.NewValidator(),
		opts:      opts,
	}
}

// IsEnabled returns whether a provider is configured
func (a *Analyzer) IsEnabled() bool {
	return a.provider != nil
}

// Available runs the provider's availability check
func (a *Analyzer) Available(ctx context.Context) bool {
	return a.provider != nil && a.provider.IsAvailable(ctx)
}

// ProviderName returns the configured provider name, or "" when disabled
func (a *Analyzer) ProviderName() string {
	if a.provider == nil {
		return ""
	}
	return a.provider.Name()
}

// Result is a validated analysis with the metrics of the call
type Result struct {
	Analysis *model.AnalysisResult
	Metrics  model.Metrics
	Warnings []string // lenient-mode schema violations
}

// AnalysisError is a failed analysis and the number of retries spent on it
type AnalysisError struct {
	Err        error
	RetryCount int
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed after %d retries: %v", e.RetryCount, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// RetryCount returns the retries recorded in err, or 0
func RetryCount(err error) int {
	var aErr *AnalysisError
	if errors.As(err, &aErr) {
		return aErr.RetryCount
	}
	return 0
}

// Analyze validates the request, consults the cache, then calls the
// provider. Attempts run until one succeeds, a rate limit or client error
// stops the loop, or MaxRetries retries are spent. Retry attempts append a
// reminder to the prompt and wait RetryDelay times the retry number.
// Spending every attempt reports MaxRetries+1 retries.
func (a *Analyzer) Analyze(ctx context.Context, req model.AnalyzeRequest) (*Result, error) {
	if a.provider == nil {
		return nil, ErrProviderDisabled
	}

	validate.ApplyRequestDefaults(&req)
	if err := a.validator.Request(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	start := time.Now()

	key := cache.AnalysisKey(req)
	if a.opts.Cache != nil {
		if entry, ok := cache.GetEntry(a.opts.Cache, key); ok {
			metrics := entry.Metrics
			metrics.Cached = true
			metrics.ProcessingTimeMS = time.Since(start).Milliseconds()
			analysis := entry.Analysis
			return &Result{Analysis: &analysis, Metrics: metrics, Warnings: entry.Warnings}, nil
		}
	}

	system := BuildSystemPrompt()
	basePrompt := BuildUserPrompt(req)

	var (
		retries int
		lastErr error
	)
	for retries <= a.opts.MaxRetries {
		prompt := basePrompt
		if retries > 0 {
			prompt += RetryReminder
		}

		a.opts.Logf("⚙️  Attempt %d/%d: %s %s", retries+1, a.opts.MaxRetries+1, a.provider.Name(), req.ModelID)

		result, err := a.attempt(ctx, req.ModelID, system, prompt)
		if err == nil {
			result.Metrics.RetryCount = retries
			result.Metrics.ProcessingTimeMS = time.Since(start).Milliseconds()
			if a.opts.Cache != nil {
				entry := &cache.Entry{Analysis: *result.Analysis, Metrics: result.Metrics, Warnings: result.Warnings}
				if cerr := cache.PutEntry(a.opts.Cache, key, entry, a.opts.CacheTTL); cerr != nil {
					a.opts.Logf("Warning: cache write failed: %v", cerr)
				}
			}
			return result, nil
		}

		lastErr = err
		a.opts.Logf("✗ Attempt %d failed: %v", retries+1, err)

		if !Retryable(err) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		retries++
		if retries <= a.opts.MaxRetries {
			if err := analyzeSleepFunc(ctx, a.opts.RetryDelay*time.Duration(retries)); err != nil {
				lastErr = err
				break
			}
		}
	}

	return nil, &AnalysisError{Err: lastErr, RetryCount: retries}
}

// attempt runs one provider call and validates its output
func (a *Analyzer) attempt(ctx context.Context, modelID, system, prompt string) (*Result, error) {
	if a.opts.Limiter != nil {
		if err := a.opts.Limiter.Wait(ctx, a.provider.Name()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrThrottled, err)
		}
	}

	resp, err := a.provider.Complete(ctx, CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Model:       modelID,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		return nil, err
	}

	analysis, warnings, err := a.validator.Decode([]byte(resp.Content), a.opts.StrictSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaValidation, err)
	}

	usage := resp.Usage
	estimated := false
	if usage.Input == 0 && usage.Output == 0 && usage.Total == 0 {
		usage.Input = EstimateTokens(system + prompt)
		usage.Output = EstimateTokens(resp.Content)
		estimated = true
	}
	if usage.Total == 0 {
		usage.Total = usage.Input + usage.Output
	}

	usedModel := resp.Model
	if usedModel == "" {
		usedModel = modelID
	}

	return &Result{
		Analysis: analysis,
		Warnings: warnings,
		Metrics: model.Metrics{
			TokensUsed:      usage,
			ModelUsed:       usedModel,
			Provider:        a.provider.Name(),
			EstimatedCost:   EstimateCost(usedModel, usage),
			Temperature:     a.opts.Temperature,
			TokensEstimated: estimated,
		},
	}, nil
}
