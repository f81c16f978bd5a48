package tactile

import (
	"context"
	"strconv"
	"strings"

	"netero/internal/logging"
	"netero/internal/parse"
)

// EmptyMarker stands in for blank output in reports.
const EmptyMarker = "<empty>"

// Runner executes command lines through a shell and renders reports.
type Runner struct {
	Executor  Executor
	Shell     Shell
	SessionID string
}

// NewRunner returns a Runner backed by a DirectExecutor.
func NewRunner(shell Shell, cfg ExecutorConfig) *Runner {
	exec := NewDirectExecutorWithConfig(cfg)
	exec.SetAuditCallback(LogAudit)
	return &Runner{Executor: exec, Shell: shell}
}

// RunInlineCommands runs every #!(...) command in raw, in order, and joins
// their reports with a blank line. It reports false when raw has none.
func (r *Runner) RunInlineCommands(ctx context.Context, raw string) (string, bool) {
	cmds := parse.ExtractInlineCommands(raw)
	if len(cmds) == 0 {
		return "", false
	}
	logging.ShellDebug("running %d inline command(s)", len(cmds))
	return r.RunCommands(ctx, cmds), true
}

// RunCommands runs each line and returns the joined reports.
func (r *Runner) RunCommands(ctx context.Context, lines []string) string {
	reports := make([]string, 0, len(lines))
	for _, line := range lines {
		reports = append(reports, r.runOne(ctx, line))
	}
	return strings.Join(reports, "\n\n")
}

func (r *Runner) runOne(ctx context.Context, line string) string {
	cmd := r.Shell.Command(line)
	cmd.SessionID = r.SessionID

	result, err := r.Executor.Execute(ctx, cmd)
	if err != nil {
		result = &ExecutionResult{ExitCode: -1, Error: err.Error()}
	}
	return FormatReport(line, result)
}

// FormatReport renders one [section] block.
//
// Success shows stdout, plus stderr when the command wrote any. Failure
// (spawn error, kill or non-zero exit) shows the exit status or error text,
// stderr and stdout.
func FormatReport(line string, result *ExecutionResult) string {
	var b strings.Builder
	b.WriteString("[section]\n[command]\n")
	b.WriteString(line)
	b.WriteString("\n")

	if result.Succeeded() {
		b.WriteString("[stdout]\n")
		b.WriteString(orEmpty(result.Stdout))
		b.WriteString("\n")
		if strings.TrimSpace(result.Stderr) != "" {
			b.WriteString("[stderr]\n")
			b.WriteString(trimOutput(result.Stderr))
			b.WriteString("\n")
		}
	} else {
		b.WriteString("[exit status]\n")
		b.WriteString(exitStatus(result))
		b.WriteString("\n[stderr]\n")
		b.WriteString(orEmpty(result.Stderr))
		b.WriteString("\n[stdout]\n")
		b.WriteString(orEmpty(result.Stdout))
		b.WriteString("\n")
	}

	b.WriteString("[end section]")
	return b.String()
}

func exitStatus(result *ExecutionResult) string {
	switch {
	case !result.Started && result.Error != "":
		return result.Error
	case result.Killed:
		return result.KillReason
	default:
		return strconv.Itoa(result.ExitCode)
	}
}

func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return EmptyMarker
	}
	return trimOutput(s)
}

func trimOutput(s string) string {
	return strings.TrimRight(s, "\r\n")
}
