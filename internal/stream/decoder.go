// Package stream decodes OpenAI-style Server-Sent Events completion bodies.
//
// Each non-blank line is trimmed; only "data:" lines count. The payload
// "[DONE]" ends the stream. Any other payload must be a JSON chunk whose
// first choice may carry a text delta; a payload that is not valid JSON
// aborts the stream. Deltas are emitted before the next line is read, and
// text already emitted is never retracted.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"netero/internal/logging"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"

	maxLineSize = 1024 * 1024
)

// ErrUnterminated is returned when the body ends without "[DONE]".
// The accumulated text is returned alongside it.
var ErrUnterminated = errors.New("stream ended without [DONE]")

// FrameError reports a data payload that could not be used.
type FrameError struct {
	Line    int
	Payload string
	Err     error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("invalid stream frame at line %d: %v", e.Line, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// APIError is an error object delivered inside the stream.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("API error (%s): %s", e.Type, e.Message)
	}
	return "API error: " + e.Message
}

// Chunk is one decoded data payload.
type Chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage    `json:"usage,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// Usage is the token accounting some providers append to the last chunk.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is what a finished (or aborted) stream produced.
type Result struct {
	Text  string
	Usage *Usage
}

// Decode reads frames from r until "[DONE]", calling emit for every
// non-empty delta. An emit error stops decoding and is returned as is.
func Decode(r io.Reader, emit func(string) error) (Result, error) {
	var (
		res    Result
		text   strings.Builder
		lineNo int
		frames int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		payload, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == doneMarker {
			res.Text = text.String()
			logging.StreamDebug("stream done: %d frames, %d bytes", frames, text.Len())
			return res, nil
		}

		var chunk Chunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			res.Text = text.String()
			logging.StreamError("malformed frame at line %d: %v", lineNo, err)
			return res, &FrameError{Line: lineNo, Payload: payload, Err: err}
		}
		frames++

		if chunk.Error != nil {
			res.Text = text.String()
			return res, &FrameError{Line: lineNo, Payload: payload, Err: chunk.Error}
		}
		if chunk.Usage != nil {
			res.Usage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		text.WriteString(delta)
		if emit != nil {
			if err := emit(delta); err != nil {
				res.Text = text.String()
				return res, err
			}
		}
	}

	res.Text = text.String()
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("stream read failed: %w", err)
	}
	return res, ErrUnterminated
}
