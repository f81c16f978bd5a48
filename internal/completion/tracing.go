package completion

import (
	"context"
	"time"

	"github.com/google/uuid"

	"netero/internal/logging"
	"netero/internal/trace"
	"netero/internal/usage"
)

type operationKey struct{}

// WithOperation tags ctx with the kind of request (chat, translate, save,
// prompt, commit) for usage accounting.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

func operationFrom(ctx context.Context) string {
	op, _ := ctx.Value(operationKey{}).(string)
	return op
}

// TracingClient wraps a Client and records every request: api-category
// logs keyed by a request ID, token usage, and trace datagrams when a
// socket is configured.
type TracingClient struct {
	underlying Client
	tracker    *usage.Tracker
	socket     string // empty = trace disabled
}

// NewTracingClient wraps c. tracker may be nil.
func NewTracingClient(c Client, tracker *usage.Tracker, socket string) *TracingClient {
	return &TracingClient{underlying: c, tracker: tracker, socket: socket}
}

func (tc *TracingClient) Provider() string { return tc.underlying.Provider() }

func (tc *TracingClient) Model() string { return tc.underlying.Model() }

// Complete implements Client.Complete with tracing.
func (tc *TracingClient) Complete(ctx context.Context, prompt string) (Response, error) {
	return tc.record(ctx, prompt, false, func() (Response, error) {
		return tc.underlying.Complete(ctx, prompt)
	})
}

// CompleteStream implements Client.CompleteStream with tracing.
func (tc *TracingClient) CompleteStream(ctx context.Context, prompt string, emit func(string) error) (Response, error) {
	return tc.record(ctx, prompt, true, func() (Response, error) {
		return tc.underlying.CompleteStream(ctx, prompt, emit)
	})
}

func (tc *TracingClient) record(ctx context.Context, prompt string, streaming bool, call func() (Response, error)) (Response, error) {
	reqID := uuid.NewString()
	log := logging.WithRequestID(logging.CategoryAPI, reqID).
		WithField("provider", tc.Provider()).
		WithField("model", tc.Model())

	start := time.Now()
	log.Info("LLM call started: stream=%t prompt_len=%d", streaming, len(prompt))
	log.Debug("prompt:\n%s", prompt)
	tc.send(trace.KindPrompt, prompt)

	resp, err := call()

	duration := time.Since(start)
	if err != nil {
		log.Error("LLM call failed: duration=%v error=%v", duration, err)
		tc.send(trace.KindError, err.Error())
		return resp, err
	}
	log.Info("LLM call completed: duration=%v response_len=%d tokens=%d",
		duration, len(resp.Text), resp.Usage.TotalTokens)
	tc.send(trace.KindResponse, resp.Text)

	if tc.tracker != nil {
		tc.tracker.Track(ctx, tc.Provider(), tc.Model(),
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, operationFrom(ctx))
	}
	return resp, nil
}

func (tc *TracingClient) send(kind, payload string) {
	if tc.socket == "" {
		return
	}
	if err := trace.Send(tc.socket, kind, payload); err != nil {
		logging.TraceDebug("trace event dropped: %v", err)
	}
}
