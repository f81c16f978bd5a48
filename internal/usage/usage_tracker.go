// Package usage keeps per-process token accounting for completion requests.
package usage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type contextKey struct{}

type sessionKey struct{}

// Tracker aggregates token usage in memory. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	events []Event
	agg    AggregatedStats
	now    func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		now: time.Now,
		agg: AggregatedStats{
			ByProvider:  make(map[string]TokenCounts),
			ByModel:     make(map[string]TokenCounts),
			ByOperation: make(map[string]TokenCounts),
			BySession:   make(map[string]TokenCounts),
		},
	}
}

// Track records a new usage event. The session comes from ctx (see
// WithSession); requests outside a session count as "unknown".
func (t *Tracker) Track(ctx context.Context, provider, model string, input, output int, operation string) {
	sessionID := SessionFrom(ctx)
	if sessionID == "" {
		sessionID = "unknown"
	}
	if operation == "" {
		operation = "chat"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, Event{
		Timestamp:    t.now(),
		Provider:     provider,
		Model:        model,
		InputTokens:  input,
		OutputTokens: output,
		SessionID:    sessionID,
		Operation:    operation,
	})

	t.agg.Total.Add(input, output)
	addToMap(t.agg.ByProvider, provider, input, output)
	addToMap(t.agg.ByModel, model, input, output)
	addToMap(t.agg.ByOperation, operation, input, output)
	addToMap(t.agg.BySession, sessionID, input, output)
}

// Events returns a copy of the recorded events in arrival order.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.agg
	stats.ByProvider = copyTokenCountsMap(stats.ByProvider)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	stats.BySession = copyTokenCountsMap(stats.BySession)
	return stats
}

// Summary renders the totals and per-model counts, one line each.
func (t *Tracker) Summary() string {
	stats := t.Stats()
	if stats.Total.Requests == 0 {
		return "usage: no requests"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "usage: %d request(s), %d in, %d out, %d total",
		stats.Total.Requests, stats.Total.Input, stats.Total.Output, stats.Total.Total)

	models := make([]string, 0, len(stats.ByModel))
	for m := range stats.ByModel {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		c := stats.ByModel[m]
		fmt.Fprintf(&b, "\n  %s: %d request(s), %d in, %d out", m, c.Requests, c.Input, c.Output)
	}
	return b.String()
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(contextKey{}).(*Tracker)
	return t
}

// WithSession tags ctx with the chat session ID.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom returns the session ID set by WithSession, or "".
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
