package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netero/internal/stream"
)

func newTestOpenAIClient(url, key string) *OpenAIClient {
	c := NewOpenAIClient(OpenAIConfig{
		Provider: "netero",
		APIKey:   key,
		Endpoint: url + "/v1/chat/completions",
		Model:    "test-model",
		Timeout:  5 * time.Second,
	})
	c.retryBackoff = time.Millisecond
	return c
}

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req openAIRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, []openAIMessage{{Role: "user", Content: "hello"}}, req.Messages)
		assert.False(t, req.Stream)
		assert.Nil(t, req.Temperature)

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hi there\n"}}],
			"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	}))
	defer server.Close()

	resp, err := newTestOpenAIClient(server.URL, "secret").Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", resp.Text)
	assert.Equal(t, Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}, resp.Usage)
}

func TestOpenAIClient_NoKeyNoAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer server.Close()

	resp, err := newTestOpenAIClient(server.URL, "").Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, Usage{}, resp.Usage)
}

func TestOpenAIClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad key"}`)
	}))
	defer server.Close()

	_, err := newTestOpenAIClient(server.URL, "k").Complete(context.Background(), "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad key")
}

func TestOpenAIClient_RetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"finally"}}]}`)
	}))
	defer server.Close()

	resp, err := newTestOpenAIClient(server.URL, "k").Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "finally", resp.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenAIClient_RateLimitExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestOpenAIClient(server.URL, "k").Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestOpenAIClient_BodyErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"api error object", `{"error":{"message":"quota","type":"insufficient_quota"}}`, "quota"},
		{"no choices", `{"choices":[]}`, ErrNoChoices.Error()},
		{"not json", `<html>`, "failed to parse response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestOpenAIClient(server.URL, "k").Complete(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpenAIClient_CompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		var req openAIRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			`: keep-alive`,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: {"choices":[],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`,
			`data: [DONE]`,
		} {
			fmt.Fprintf(w, "%s\n\n", frame)
			flusher.Flush()
		}
	}))
	defer server.Close()

	var got []string
	resp, err := newTestOpenAIClient(server.URL, "k").CompleteStream(context.Background(), "x",
		func(delta string) error {
			got = append(got, delta)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, got)
	assert.Equal(t, "Hello", resp.Text)
	assert.Equal(t, 6, resp.Usage.TotalTokens)
}

func TestOpenAIClient_StreamOutlivesRequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"slow \"}}]}\n\n")
		flusher.Flush()
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"answer\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	c := newTestOpenAIClient(server.URL, "k")
	c.timeout = 100 * time.Millisecond

	resp, err := c.CompleteStream(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "slow answer", resp.Text)
}

func TestOpenAIClient_CompleteHonorsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := newTestOpenAIClient(server.URL, "k")
	c.timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := c.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStreamDeadline(t *testing.T) {
	assert.Equal(t, time.Duration(0), streamDeadline(0))
	assert.Equal(t, StreamTimeout, streamDeadline(120*time.Second))
	assert.Equal(t, 20*time.Minute, streamDeadline(20*time.Minute))
}

func TestOpenAIClient_CompleteStreamUnterminated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
	}))
	defer server.Close()

	resp, err := newTestOpenAIClient(server.URL, "k").CompleteStream(context.Background(), "x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stream.ErrUnterminated))
	assert.Equal(t, "partial", resp.Text)
}

func TestOpenAIClient_CompleteStreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestOpenAIClient(server.URL, "k").CompleteStream(context.Background(), "x", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}
