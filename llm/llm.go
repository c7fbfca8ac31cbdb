// Package llm wraps the external text generation service behind Generator.
package llm

import (
	"context"
	"errors"
	"fmt"

	"news-video-kit/config"

	"golang.org/x/time/rate"
)

// Generator turns one prompt into one completion
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Readier is implemented by generators that can report a configuration problem
// before any call is made.
type Readier interface {
	Ready() error
}

var (
	ErrRateLimited       = errors.New("Rate limit exceeded. Please try again later.")
	ErrQuotaExceeded     = errors.New("AI usage credits required. Please add credits to your workspace.")
	ErrMissingCredential = errors.New("AI_API_KEY is not configured")
)

// UpstreamError is any other non-success status from the service
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI request failed: %d %s", e.StatusCode, e.Body)
}

// statusError maps an HTTP status and body onto the error taxonomy
func statusError(code int, body string) error {
	switch code {
	case 429:
		return ErrRateLimited
	case 402:
		return ErrQuotaExceeded
	default:
		return &UpstreamError{StatusCode: code, Body: body}
	}
}

// Ready reports whether g can serve calls
func Ready(g Generator) error {
	if r, ok := g.(Readier); ok {
		return r.Ready()
	}
	return nil
}

// Unavailable is a Generator that fails every call with err.
// The server uses it when the credential is missing so it can still start.
type Unavailable struct {
	Err error
}

func (u Unavailable) Ready() error { return u.Err }

func (u Unavailable) Generate(ctx context.Context, prompt string) (string, error) {
	return "", u.Err
}

// New builds the generator for cfg.Provider
func New(cfg config.GenerationConfig) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	switch cfg.Provider {
	case "", "chat":
		return NewChatClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg), nil
	case "gemini":
		return NewGeminiClient(context.Background(), cfg)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// newLimiter paces outbound calls. requestsPerMinute <= 0 means unlimited.
func newLimiter(requestsPerMinute, burst int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
}
