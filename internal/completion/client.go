// Package completion sends prompts to an LLM provider and returns the reply,
// either whole or as a stream of text deltas.
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"netero/internal/config"
	"netero/internal/stream"
)

// ErrNoChoices is returned when a provider answers without any completion.
var ErrNoChoices = errors.New("no completion returned")

// Usage reports token counts for one request. Zero values mean the provider
// did not report them.
type Usage = stream.Usage

// Response is a finished completion.
type Response struct {
	Text  string
	Usage Usage
}

// StreamTimeout is the minimum deadline for a streamed completion, body
// included.
const StreamTimeout = 10 * time.Minute

// withDeadline bounds ctx by d; d <= 0 means no deadline.
func withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func streamDeadline(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	return max(timeout, StreamTimeout)
}

// Client is implemented by every provider.
type Client interface {
	// Complete sends prompt as a single user message.
	Complete(ctx context.Context, prompt string) (Response, error)
	// CompleteStream sends prompt and calls emit with each text delta as it
	// arrives. Text already emitted is never retracted; on error the Response
	// holds what was received so far.
	CompleteStream(ctx context.Context, prompt string, emit func(string) error) (Response, error)
	// Provider returns the provider name (netero, codestral, ...).
	Provider() string
	// Model returns the model identifier sent with each request.
	Model() string
}

// APIError is a non-200 answer from an HTTP provider.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
}

// NewClient builds the client for cfg.LLM.Provider. cfg must have passed
// Validate.
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	timeout := cfg.GetLLMTimeout()
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.ResolvedModel(),
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     timeout,
		})
	case config.ProviderNetero, config.ProviderCodestral, config.ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			Provider:    cfg.LLM.Provider,
			APIKey:      cfg.LLM.APIKey,
			Endpoint:    cfg.ResolvedBaseURL(),
			Model:       cfg.ResolvedModel(),
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.LLM.Provider)
	}
}
