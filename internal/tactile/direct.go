package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"netero/internal/logging"
)

// DirectExecutor executes commands directly on the host using os/exec.
type DirectExecutor struct {
	mu     sync.RWMutex
	config ExecutorConfig

	// auditCallback is called for execution events
	auditCallback func(AuditEvent)
}

// NewDirectExecutor creates a new direct executor with default config.
func NewDirectExecutor() *DirectExecutor {
	return NewDirectExecutorWithConfig(DefaultExecutorConfig())
}

// NewDirectExecutorWithConfig creates a new direct executor with custom config.
func NewDirectExecutorWithConfig(config ExecutorConfig) *DirectExecutor {
	logging.ShellDebug("Creating DirectExecutor: timeout=%s, maxOutput=%d bytes",
		config.DefaultTimeout, config.MaxOutputBytes)
	return &DirectExecutor{config: config}
}

// SetAuditCallback sets the callback for audit events.
func (e *DirectExecutor) SetAuditCallback(callback func(AuditEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auditCallback = callback
}

// LogAudit writes ev to the shell log with the command, exit code and
// duration as fields.
func LogAudit(ev AuditEvent) {
	fields := map[string]interface{}{
		"command":    ev.Command.CommandString(),
		"session_id": ev.SessionID,
	}
	lvl := "debug"
	if r := ev.Result; r != nil {
		fields["exit_code"] = r.ExitCode
		fields["duration_ms"] = r.Duration.Milliseconds()
		if r.Truncated {
			fields["truncated_bytes"] = r.TruncatedBytes
		}
		if r.KillReason != "" {
			fields["kill_reason"] = r.KillReason
		}
		if r.Error != "" {
			fields["error"] = r.Error
		}
	}
	switch ev.Type {
	case AuditEventKilled, AuditEventError:
		lvl = "warn"
	case AuditEventComplete:
		lvl = "info"
	}
	logging.Get(logging.CategoryShell).StructuredLog(lvl, "exec "+string(ev.Type), fields)
}

func (e *DirectExecutor) emitAudit(typ AuditEventType, cmd Command, result *ExecutionResult) {
	e.mu.RLock()
	callback := e.auditCallback
	e.mu.RUnlock()

	if callback != nil {
		callback(AuditEvent{
			Type:      typ,
			Timestamp: time.Now(),
			Command:   cmd,
			Result:    result,
			SessionID: cmd.SessionID,
		})
	}
}

// Execute runs a command directly on the host. Spawn failures and non-zero
// exits are reported through the result, never as an error.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}

	timer := logging.StartTimer(logging.CategoryShell, "command "+cmd.CommandString())
	defer timer.Stop()

	logging.Shell("Executing command: %s", cmd.CommandString())

	result := &ExecutionResult{ExitCode: -1, Command: &cmd}
	e.emitAudit(AuditEventStart, cmd, nil)

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = e.config.DefaultTimeout
	}
	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.Env = append(os.Environ(), cmd.Environment...)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: e.config.MaxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: e.config.MaxOutputBytes}
	execCmd.Stdout = stdoutLimited
	execCmd.Stderr = stderrLimited

	result.StartedAt = time.Now()
	err := execCmd.Run()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if stdoutLimited.truncated || stderrLimited.truncated {
		result.Truncated = true
		result.TruncatedBytes = stdoutLimited.discarded + stderrLimited.discarded
		logging.ShellWarn("Command output truncated: %d bytes discarded", result.TruncatedBytes)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Started = true
		result.ExitCode = 0
	case execCtx.Err() != nil:
		result.Started = true
		result.Killed = true
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			result.KillReason = fmt.Sprintf("timeout after %s", timeout)
		} else {
			result.KillReason = "context canceled"
		}
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		logging.ShellWarn("Command killed (%s): %s", result.KillReason, cmd.CommandString())
		e.emitAudit(AuditEventKilled, cmd, result)
		return result, nil
	case errors.As(err, &exitErr):
		result.Started = true
		result.ExitCode = exitErr.ExitCode()
		logging.ShellDebug("Command exited non-zero: %s -> %d", cmd.CommandString(), result.ExitCode)
	default:
		result.Error = err.Error()
		logging.ShellWarn("Command failed to start: %s - %v", cmd.CommandString(), err)
		e.emitAudit(AuditEventError, cmd, result)
		return result, nil
	}

	e.emitAudit(AuditEventComplete, cmd, result)
	logging.Shell("Command completed: exit=%d, duration=%s, stdout=%d bytes",
		result.ExitCode, result.Duration, len(result.Stdout))
	return result, nil
}

// limitedWriter is an io.Writer that limits total bytes written.
// A zero max disables the limit.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.max <= 0 {
		written, err := lw.w.Write(p)
		lw.written += int64(written)
		return written, err
	}

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
