package chat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"netero/internal/attach"
	"netero/internal/logging"
)

// ErrExit is returned by a LineReader when the user interrupts the prompt.
var ErrExit = errors.New("exit requested")

// LineReader supplies input lines. io.EOF and ErrExit end the session
// cleanly; any other error ends it with that error.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

const promptMarker = "➜ "

const (
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

// LinerReader reads lines with editing, history and tab completion.
type LinerReader struct {
	state       *liner.State
	out         io.Writer
	historyFile string
}

// NewLinerReader sets up the line editor. A non-empty historyFile is loaded
// now and written back on Close.
func NewLinerReader(out io.Writer, historyFile string) *LinerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetTabCompletionStyle(liner.TabPrints)
	state.SetWordCompleter(NewCompleter().Complete)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			if _, err := state.ReadHistory(f); err != nil {
				logging.SessionWarn("read history %s: %v", historyFile, err)
			}
			f.Close()
		}
	}
	return &LinerReader{state: state, out: out, historyFile: historyFile}
}

// ReadLine shows the prompt and returns the edited line.
func (r *LinerReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, ansiCyan+"\n")
	line, err := r.state.Prompt(promptMarker)
	fmt.Fprint(r.out, ansiReset+"\n")
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrExit
		}
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}
	return line, nil
}

// Close restores the terminal and persists history.
func (r *LinerReader) Close() error {
	if r.historyFile != "" {
		if f, err := os.Create(r.historyFile); err == nil {
			if _, err := r.state.WriteHistory(f); err != nil {
				logging.SessionWarn("write history %s: %v", r.historyFile, err)
			}
			f.Close()
		} else {
			logging.SessionWarn("create history %s: %v", r.historyFile, err)
		}
	}
	return r.state.Close()
}

// TTYReader reads plain lines from the controlling terminal. It is used when
// stdin was consumed as a pipe.
type TTYReader struct {
	tty    io.ReadWriteCloser
	reader *bufio.Reader
}

// OpenTTY opens /dev/tty for interactive input.
func OpenTTY() (*TTYReader, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}
	return NewTTYReader(f), nil
}

// NewTTYReader reads lines from tty and writes the prompt back to it.
func NewTTYReader(tty io.ReadWriteCloser) *TTYReader {
	return &TTYReader{tty: tty, reader: bufio.NewReader(tty)}
}

// ReadLine returns the next trimmed line. A final unterminated line is
// returned before io.EOF.
func (r *TTYReader) ReadLine() (string, error) {
	fmt.Fprint(r.tty, ansiCyan+promptMarker)
	line, err := r.reader.ReadString('\n')
	fmt.Fprint(r.tty, ansiReset)
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Close closes the terminal handle.
func (r *TTYReader) Close() error { return r.tty.Close() }

var inlineCommands = []string{"awk", "cat", "git", "grep", "head", "ls", "pwd", "rg", "sed", "tail"}

var gitSubcommands = []string{
	"add", "branch", "checkout", "commit", "diff", "fetch", "log", "merge",
	"pull", "push", "rebase", "reset", "restore", "show", "stash", "status", "switch",
}

// Completer provides tab completion for the line editor.
type Completer struct {
	// ReadDir lists directory entries; os.ReadDir by default.
	ReadDir func(string) ([]os.DirEntry, error)
}

// NewCompleter returns a Completer reading the real file system.
func NewCompleter() *Completer {
	return &Completer{ReadDir: os.ReadDir}
}

// Complete implements liner.WordCompleter; pos counts runes. It completes slash commands at
// the start of the line, file paths after "/add " and for path-shaped
// words, and inside an open "#!(" span a command name or git subcommand.
func (c *Completer) Complete(line string, pos int) (head string, completions []string, tail string) {
	runes := []rune(line)
	if pos < 0 || pos > len(runes) {
		pos = len(runes)
	}
	before, tail := string(runes[:pos]), string(runes[pos:])

	if strings.HasPrefix(before, "/") && !strings.ContainsAny(before, " \t") {
		return "", withPrefix(slashCommands, before), tail
	}

	word := before[strings.LastIndexAny(before, " \t")+1:]
	if inner, ok := openInlineSpan(before); ok {
		word = inner[strings.LastIndexAny(inner, " \t")+1:]
		head = before[:len(before)-len(word)]

		fields := strings.Fields(inner)
		endsInSpace := inner == "" || strings.ContainsAny(inner[len(inner)-1:], " \t")
		switch {
		case len(fields) == 0 || (len(fields) == 1 && !endsInSpace):
			return head, withPrefix(inlineCommands, word), tail
		case fields[0] == "git" && (len(fields) == 1 || (len(fields) == 2 && !endsInSpace)):
			return head, withPrefix(gitSubcommands, word), tail
		}
	}
	head = before[:len(before)-len(word)]

	if strings.HasPrefix(before, "/add ") {
		return head, c.paths(word), tail
	}

	if attach.IsPathCandidate(word) {
		return head, c.paths(word), tail
	}
	return head, nil, tail
}

// openInlineSpan returns the text after the last "#!(" when that span is
// still unclosed.
func openInlineSpan(before string) (string, bool) {
	i := strings.LastIndex(before, "#!(")
	if i < 0 {
		return "", false
	}
	inner := before[i+3:]
	if strings.Contains(inner, ")") {
		return "", false
	}
	return inner, true
}

func withPrefix(candidates []string, prefix string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// paths completes word as a file path. The typed directory part, including
// a leading "~/", is kept as typed; directories get a trailing "/".
func (c *Completer) paths(word string) []string {
	dir, prefix := "", word
	if i := strings.LastIndex(word, "/"); i >= 0 {
		dir, prefix = word[:i+1], word[i+1:]
	}
	listDir := attach.ExpandHome(dir)
	if listDir == "" {
		listDir = "."
	}

	readDir := c.ReadDir
	if readDir == nil {
		readDir = os.ReadDir
	}
	entries, err := readDir(listDir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		candidate := dir + name
		if e.IsDir() {
			candidate += "/"
		}
		out = append(out, candidate)
	}
	sort.Strings(out)
	return out
}
