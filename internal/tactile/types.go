// Package tactile is the execution layer for user-invoked shell commands.
// It runs commands on the host with no sandbox, captures stdout, stderr and
// exit status, and renders the [section] reports that become the COMMAND
// OUTPUT part of a chat prompt.
//
// Commands are trusted: the user typed them. Nothing here filters, rewrites
// or time-limits a command unless the caller asks for a timeout.
package tactile

import (
	"context"
	"strings"
	"time"
)

// Command represents a command to be executed.
type Command struct {
	// Binary is the executable to run (e.g., "sh", "git").
	Binary string `json:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments"`

	// Display is the text shown in reports; defaults to CommandString.
	Display string `json:"display,omitempty"`

	// WorkingDirectory is the directory to execute in. Empty = current.
	WorkingDirectory string `json:"working_directory,omitempty"`

	// Environment variables added on top of the inherited environment.
	Environment []string `json:"environment,omitempty"`

	// Timeout bounds execution. Zero means no timeout.
	Timeout time.Duration `json:"timeout,omitempty"`

	// SessionID links this execution to a chat session (for audit).
	SessionID string `json:"session_id,omitempty"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if c.Display != "" {
		return c.Display
	}
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// ExecutionResult captures everything about a finished command.
type ExecutionResult struct {
	// Started is false when the process could not be spawned; Error then
	// holds the spawn error text.
	Started bool `json:"started"`

	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`

	Duration   time.Duration `json:"duration"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`

	Killed     bool   `json:"killed"`
	KillReason string `json:"kill_reason,omitempty"`

	Truncated      bool  `json:"truncated"`
	TruncatedBytes int64 `json:"truncated_bytes,omitempty"`

	Error string `json:"error,omitempty"`

	Command *Command `json:"command,omitempty"`
}

// Succeeded reports a started process that exited 0 and was not killed.
func (r *ExecutionResult) Succeeded() bool {
	return r.Started && !r.Killed && r.ExitCode == 0
}

// Executor runs commands. DirectExecutor is the only host implementation;
// tests substitute fakes.
type Executor interface {
	// Execute runs cmd. Process failures (spawn errors, non-zero exits) are
	// reported in the result; the error is reserved for invalid commands.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)
}

// AuditEventType classifies audit events.
type AuditEventType string

const (
	AuditEventStart    AuditEventType = "start"
	AuditEventComplete AuditEventType = "complete"
	AuditEventKilled   AuditEventType = "killed"
	AuditEventError    AuditEventType = "error"
)

// AuditEvent is emitted around every execution.
type AuditEvent struct {
	Type      AuditEventType   `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Command   Command          `json:"command"`
	Result    *ExecutionResult `json:"result,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
}

// ExecutorConfig configures a DirectExecutor.
type ExecutorConfig struct {
	// MaxOutputBytes caps each captured stream. Zero means unlimited.
	MaxOutputBytes int64 `json:"max_output_bytes"`

	// DefaultTimeout applies when a command has none. Zero means none.
	DefaultTimeout time.Duration `json:"default_timeout"`
}

// DefaultExecutorConfig returns a config with a 1MB per-stream cap and no timeout.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{MaxOutputBytes: 1 << 20}
}
