package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"netero/internal/logging"
	"netero/internal/stream"
)

// OpenAIConfig holds configuration for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	Provider    string
	APIKey      string // optional; sent as a Bearer token when set
	Endpoint    string // full chat/completions URL
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout bounds Complete; CompleteStream gets at least StreamTimeout.
	Timeout time.Duration
}

// OpenAIClient talks to any OpenAI-compatible chat/completions endpoint
// (netero, codestral, openai).
type OpenAIClient struct {
	provider    string
	apiKey      string
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	httpClient  *http.Client

	maxRetries   int
	retryBackoff time.Duration
}

// NewOpenAIClient creates a client from config.
func NewOpenAIClient(config OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		provider:     config.Provider,
		apiKey:       config.APIKey,
		endpoint:     config.Endpoint,
		model:        config.Model,
		maxTokens:    config.MaxTokens,
		temperature:  config.Temperature,
		timeout:      config.Timeout,
		httpClient:   &http.Client{},
		maxRetries:   3,
		retryBackoff: time.Second,
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *stream.Usage    `json:"usage,omitempty"`
	Error *stream.APIError `json:"error,omitempty"`
}

func (c *OpenAIClient) Provider() string { return c.provider }

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) newRequest(ctx context.Context, prompt string, streaming bool) (*http.Request, error) {
	body := openAIRequest{
		Model:     c.model,
		Messages:  []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
		Stream:    streaming,
	}
	if c.temperature > 0 {
		t := c.temperature
		body.Temperature = &t
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

// do sends the request, retrying on 429 before any body is consumed. The
// caller owns the returned response body.
func (c *OpenAIClient) do(ctx context.Context, prompt string, streaming bool) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryBackoff * time.Duration(1<<uint(attempt-1))
			logging.APIWarn("[%s] rate limited, retrying in %v (attempt %d/%d)", c.provider, wait, attempt, c.maxRetries)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := c.newRequest(ctx, prompt, streaming)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = &APIError{Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode != http.StatusTooManyRequests {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Complete sends a prompt and returns the whole completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (Response, error) {
	startTime := time.Now()
	logging.APIDebug("[%s] Complete: model=%s prompt_len=%d", c.provider, c.model, len(prompt))
	ctx, cancel := withDeadline(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, prompt, false)
	if err != nil {
		logging.APIError("[%s] Complete failed after %v: %v", c.provider, time.Since(startTime), err)
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Response{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return Response{}, parsed.Error
	}
	if len(parsed.Choices) == 0 {
		return Response{}, ErrNoChoices
	}

	out := Response{Text: parsed.Choices[0].Message.Content}
	if parsed.Usage != nil {
		out.Usage = *parsed.Usage
	}
	logging.API("[%s] Complete: completed in %v response_len=%d", c.provider, time.Since(startTime), len(out.Text))
	return out, nil
}

// CompleteStream sends a prompt with streaming enabled and forwards each
// delta to emit as soon as its frame is decoded.
func (c *OpenAIClient) CompleteStream(ctx context.Context, prompt string, emit func(string) error) (Response, error) {
	startTime := time.Now()
	logging.APIDebug("[%s] CompleteStream: model=%s prompt_len=%d", c.provider, c.model, len(prompt))
	ctx, cancel := withDeadline(ctx, streamDeadline(c.timeout))
	defer cancel()

	resp, err := c.do(ctx, prompt, true)
	if err != nil {
		logging.APIError("[%s] CompleteStream failed after %v: %v", c.provider, time.Since(startTime), err)
		return Response{}, err
	}
	defer resp.Body.Close()

	res, err := stream.Decode(resp.Body, emit)
	out := Response{Text: res.Text}
	if res.Usage != nil {
		out.Usage = *res.Usage
	}
	if err != nil {
		logging.APIError("[%s] CompleteStream: stream error after %v: %v", c.provider, time.Since(startTime), err)
		return out, fmt.Errorf("stream error: %w", err)
	}
	logging.API("[%s] CompleteStream: completed in %v response_len=%d", c.provider, time.Since(startTime), len(out.Text))
	return out, nil
}
