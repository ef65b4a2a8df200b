package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRateLimited means the provider refused the request for quota reasons.
	// The analyzer never retries it.
	ErrRateLimited = errors.New("rate limit reached")

	// ErrInvalidRequest covers 4xx responses other than 429. Not retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSchemaValidation means the model answered with JSON that failed the schema
	ErrSchemaValidation = errors.New("analysis failed schema validation")

	// ErrNoContent means the provider answered without any text
	ErrNoContent = errors.New("no content in response")

	// ErrProviderDisabled means no provider is configured
	ErrProviderDisabled = errors.New("LLM provider disabled")

	// ErrThrottled means the local limiter gave up before the provider was
	// called, usually because the context would expire first. Not retried.
	ErrThrottled = errors.New("throttle wait")
)

// ProviderError is a provider API failure with its HTTP status, when known
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (%d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel implied by the status code
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrInvalidRequest:
		return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// newProviderError wraps err with the provider name and status code
func newProviderError(provider string, status int, err error) error {
	return &ProviderError{Provider: provider, StatusCode: status, Err: err}
}

// IsRateLimit reports whether err is a provider rate-limit failure. Some
// providers only say so in the message. Local throttling and context expiry
// are not rate limits.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, ErrThrottled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource_exhausted")
}

// Retryable reports whether the analyzer should try again after err
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case IsRateLimit(err):
		return false
	case errors.Is(err, ErrInvalidRequest):
		return false
	case errors.Is(err, ErrProviderDisabled):
		return false
	case errors.Is(err, ErrThrottled):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}
