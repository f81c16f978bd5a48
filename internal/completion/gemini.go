package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"netero/internal/logging"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string // optional override of the Gemini API host
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout bounds Complete; CompleteStream gets at least StreamTimeout.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// GeminiClient implements Client on Google's genai SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	timeout time.Duration
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  config.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: config.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	gen := &genai.GenerateContentConfig{}
	if config.MaxTokens > 0 {
		gen.MaxOutputTokens = int32(config.MaxTokens)
	}
	if config.Temperature > 0 {
		gen.Temperature = genai.Ptr(float32(config.Temperature))
	}

	return &GeminiClient{client: client, model: model, config: gen, timeout: config.Timeout}, nil
}

func (c *GeminiClient) Provider() string { return "gemini" }

func (c *GeminiClient) Model() string { return c.model }

// Complete sends a prompt and returns the whole completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (Response, error) {
	startTime := time.Now()
	logging.APIDebug("[Gemini] Complete: model=%s prompt_len=%d", c.model, len(prompt))
	ctx, cancel := withDeadline(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		logging.APIError("[Gemini] Complete failed after %v: %v", time.Since(startTime), err)
		return Response{}, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Response{}, ErrNoChoices
	}

	out := Response{Text: resp.Text(), Usage: geminiUsage(resp)}
	logging.API("[Gemini] Complete: completed in %v response_len=%d", time.Since(startTime), len(out.Text))
	return out, nil
}

// CompleteStream streams a completion, calling emit for each non-empty
// text chunk.
func (c *GeminiClient) CompleteStream(ctx context.Context, prompt string, emit func(string) error) (Response, error) {
	startTime := time.Now()
	logging.APIDebug("[Gemini] CompleteStream: model=%s prompt_len=%d", c.model, len(prompt))
	ctx, cancel := withDeadline(ctx, streamDeadline(c.timeout))
	defer cancel()

	var (
		text strings.Builder
		out  Response
	)
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(prompt), c.config) {
		if err != nil {
			out.Text = text.String()
			logging.APIError("[Gemini] CompleteStream: stream error after %v: %v", time.Since(startTime), err)
			return out, fmt.Errorf("stream error: %w", err)
		}
		if u := geminiUsage(resp); u.TotalTokens > 0 {
			out.Usage = u
		}
		delta := resp.Text()
		if delta == "" {
			continue
		}
		text.WriteString(delta)
		if emit != nil {
			if err := emit(delta); err != nil {
				out.Text = text.String()
				return out, fmt.Errorf("stream error: %w", err)
			}
		}
	}

	out.Text = text.String()
	logging.API("[Gemini] CompleteStream: completed in %v response_len=%d", time.Since(startTime), len(out.Text))
	return out, nil
}

func geminiUsage(resp *genai.GenerateContentResponse) Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return Usage{}
	}
	m := resp.UsageMetadata
	return Usage{
		PromptTokens:     int(m.PromptTokenCount),
		CompletionTokens: int(m.CandidatesTokenCount),
		TotalTokens:      int(m.TotalTokenCount),
	}
}
