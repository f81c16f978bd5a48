// Package chat implements the interactive netero session: command
// classification, prompt assembly and the read-dispatch loop.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"netero/internal/ambient"
	"netero/internal/attach"
	"netero/internal/completion"
	"netero/internal/eval"
	"netero/internal/lang"
	"netero/internal/logging"
	"netero/internal/parse"
	"netero/internal/usage"
)

const clearScreen = "\x1b[2J\x1b[H"

// CommandRunner runs the #!(...) spans of a line and reports their output.
type CommandRunner interface {
	RunInlineCommands(ctx context.Context, raw string) (string, bool)
}

// Renderer formats completion text for display.
type Renderer interface {
	Render(text string) string
}

// Config wires a Session to its collaborators.
type Config struct {
	Client   completion.Client
	Runner   CommandRunner
	Reader   LineReader
	Renderer Renderer
	Out      io.Writer
	Err      io.Writer
	Env      ambient.Env

	AssistantName string
	Stream        bool
	Verbose       bool
	// SavePrefix and SaveDir place /save output at
	// <SaveDir>/<SavePrefix>.<timestamp>.md.
	SavePrefix string
	SaveDir    string

	// Stdin is piped input; when not blank it is attached to the first
	// chat prompt.
	Stdin string

	// Wait, when set, is called around non-streamed completions and returns
	// the function that ends the waiting indicator.
	Wait func() (stop func())
}

// Session is one REPL run. It is owned by the goroutine calling Run.
type Session struct {
	id     string
	client completion.Client
	runner CommandRunner
	reader LineReader
	render Renderer
	out    io.Writer
	errOut io.Writer
	env    ambient.Env
	wait   func() func()

	assistantName string
	verbose       bool
	savePrefix    string
	saveDir       string

	streaming bool
	history   []string
	pending   *string
	stdin     string
	saveName  string
}

// New creates a Session. Out, Err, Env and Renderer get defaults when unset.
func New(cfg Config) *Session {
	s := &Session{
		id:            uuid.New().String(),
		client:        cfg.Client,
		runner:        cfg.Runner,
		reader:        cfg.Reader,
		render:        cfg.Renderer,
		out:           cfg.Out,
		errOut:        cfg.Err,
		env:           cfg.Env,
		wait:          cfg.Wait,
		assistantName: cfg.AssistantName,
		verbose:       cfg.Verbose,
		savePrefix:    cfg.SavePrefix,
		saveDir:       cfg.SaveDir,
		streaming:     cfg.Stream,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.errOut == nil {
		s.errOut = os.Stderr
	}
	if s.env.Getenv == nil || s.env.Now == nil {
		s.env = ambient.Default()
	}
	if s.render == nil {
		s.render = plainText{}
	}
	if s.assistantName == "" {
		s.assistantName = "Netero"
	}
	if s.savePrefix == "" {
		s.savePrefix = "netero"
	}
	if strings.TrimSpace(cfg.Stdin) != "" {
		s.stdin = cfg.Stdin
	}
	return s
}

type plainText struct{}

func (plainText) Render(text string) string { return text }

// ID returns the session identifier used for logs and usage accounting.
func (s *Session) ID() string { return s.id }

// History returns a copy of the chat history.
func (s *Session) History() []string {
	return append([]string(nil), s.history...)
}

// Streaming reports the current /stream state.
func (s *Session) Streaming() bool { return s.streaming }

// Pending returns the attachment waiting for the next chat prompt.
func (s *Session) Pending() (string, bool) {
	if s.pending == nil {
		return "", false
	}
	return *s.pending, true
}

// Run reads and dispatches lines until the reader reports EOF or an
// interrupt, or a completion fails. The failure is returned.
func (s *Session) Run(ctx context.Context) error {
	ctx = usage.WithSession(ctx, s.id)
	logging.Session("session %s started (provider=%s, model=%s, stream=%v)",
		s.id, s.client.Provider(), s.client.Model(), s.streaming)
	defer logging.Session("session %s ended after %d history entries", s.id, len(s.history))

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := s.reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrExit) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		cmd := Classify(strings.TrimSpace(line))
		logging.CommandsDebug("dispatch %s (usage=%v)", cmd.Kind, cmd.Usage)
		if err := s.Dispatch(ctx, cmd); err != nil {
			logging.SessionError("session %s: %v", s.id, err)
			return err
		}
	}
}

// Dispatch executes one classified command. Only completion failures are
// returned; everything else is reported to the user and swallowed.
func (s *Session) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case KindEmpty:
		return nil
	case KindClean:
		s.history = nil
		fmt.Fprint(s.out, clearScreen)
		return nil
	case KindHelp:
		fmt.Fprint(s.out, helpText+"\n")
		return nil
	case KindAdd:
		s.add(cmd)
		return nil
	case KindStream:
		s.toggleStream(cmd)
		return nil
	case KindEval:
		s.evaluate(cmd)
		return nil
	case KindTrans:
		return s.translate(ctx, cmd)
	case KindSave:
		return s.save(ctx, cmd)
	default:
		return s.chat(ctx, cmd.Text)
	}
}

func (s *Session) add(cmd Command) {
	if cmd.Usage {
		fmt.Fprintln(s.out, "\n"+usageAdd)
		return
	}

	var combined strings.Builder
	for _, p := range cmd.Paths {
		a, err := attach.ReadForAdd(p)
		if err != nil {
			logging.AttachWarn("/add %s: %v", p, err)
			fmt.Fprintf(s.errOut, "\nError reading %s: %v\n", p, err)
			continue
		}
		s.history = append(s.history, "Attachment: "+p+"\n"+a.Content+"\n")
		combined.WriteString(attach.FormatAddAttachment(a))
		fmt.Fprintf(s.out, "\nadded: %s\n", p)
	}
	if combined.Len() > 0 {
		text := combined.String()
		s.pending = &text
	}
}

func (s *Session) toggleStream(cmd Command) {
	if cmd.Usage {
		fmt.Fprintln(s.out, "\n"+usageStream)
		return
	}
	s.streaming = cmd.StreamOn
	state := "off"
	if s.streaming {
		state = "on"
	}
	fmt.Fprintf(s.out, "\nstream: %s\n", state)
}

func (s *Session) evaluate(cmd Command) {
	if cmd.Usage {
		fmt.Fprintln(s.out, "\n"+usageEval)
		return
	}
	v, err := eval.Evaluate(cmd.Text)
	if err != nil {
		fmt.Fprintf(s.out, "\nError: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "\n%d\n", v)
}

func (s *Session) translate(ctx context.Context, cmd Command) error {
	if cmd.Usage {
		fmt.Fprintln(s.out, "\n"+usageTrans)
		return nil
	}
	src := "auto-detect"
	if cmd.Src != "" {
		src = lang.Normalize(cmd.Src)
	}
	dst := lang.Normalize(s.env.Locale())
	if cmd.Dst != "" {
		dst = lang.Normalize(cmd.Dst)
	}

	text, err := s.ask(ctx, "trans", BuildTranslatePrompt(src, dst, cmd.Text))
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "\n"+s.render.Render(text))
	return nil
}

func (s *Session) save(ctx context.Context, cmd Command) error {
	prompt := BuildSavePrompt(cmd.Text, lang.Normalize(s.env.Locale()), strings.Join(s.history, "\n"))
	text, err := s.ask(ctx, "save", prompt)
	if err != nil {
		return err
	}

	if s.saveName == "" {
		s.saveName = saveFileName(s.savePrefix, s.env.DateTime())
	}
	path := filepath.Join(s.saveDir, s.saveName)
	if err := appendFile(path, strings.TrimRight(text, " \t\r\n")+"\n"); err != nil {
		logging.SessionWarn("/save %s: %v", path, err)
		fmt.Fprintf(s.errOut, "\nFile error: %v\n", err)
		return nil
	}
	logging.Session("saved informe to %s", path)
	fmt.Fprintf(s.out, "\nsaved: %s\n", path)
	return nil
}

// saveFileName turns "2006-01-02 15:04:05" into prefix.2006-01-02.15_04_05.md.
func saveFileName(prefix, datetime string) string {
	safe := strings.NewReplacer(" ", ".", ":", "_").Replace(datetime)
	return prefix + "." + safe + ".md"
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Session) chat(ctx context.Context, line string) error {
	cmdOutput, _ := s.runner.RunInlineCommands(ctx, line)
	cleaned := parse.StripInlineCommands(line)

	var sections []string
	if s.pending != nil {
		sections = append(sections, strings.TrimSpace(*s.pending))
		s.pending = nil
	}
	_, atts := attach.ExtractAttachments(parse.Tokenize(cleaned))
	if block, ok := attach.FormatAttachedFiles(s.stdin, atts); ok {
		sections = append(sections, block)
	}
	s.stdin = ""

	prompt := BuildPrompt(PromptInput{
		AssistantName: s.assistantName,
		User:          s.env.User(),
		DateTime:      s.env.DateTime(),
		Locale:        lang.Normalize(s.env.Locale()),
		History:       strings.Join(s.history, "\n"),
		CommandOutput: cmdOutput,
		Attachment:    strings.Join(sections, "\n\n"),
		Message:       cleaned,
	})

	var (
		text string
		err  error
	)
	if s.streaming {
		text, err = s.askStream(ctx, "chat", prompt)
	} else {
		text, err = s.ask(ctx, "chat", prompt)
		if err == nil {
			fmt.Fprintln(s.out, "\n"+s.render.Render(text))
		}
	}
	if err != nil {
		return err
	}

	s.history = append(s.history,
		s.env.User()+": "+cleaned,
		"Assistant: "+text+"\n",
	)
	return nil
}

func (s *Session) echoPrompt(prompt string) {
	if s.verbose {
		fmt.Fprintf(s.out, "\x1b[32m%s\x1b[0m\n", prompt)
	}
}

// ask runs a non-streamed completion.
func (s *Session) ask(ctx context.Context, op, prompt string) (string, error) {
	s.echoPrompt(prompt)
	ctx = completion.WithOperation(ctx, op)

	var stop func()
	if s.wait != nil {
		stop = s.wait()
	}
	resp, err := s.client.Complete(ctx, prompt)
	if stop != nil {
		stop()
	}
	if err != nil {
		return "", fmt.Errorf("AI error: %w", err)
	}
	return resp.Text, nil
}

// askStream writes deltas to the terminal as they arrive. Streamed text is
// shown raw; it cannot be re-rendered once printed.
func (s *Session) askStream(ctx context.Context, op, prompt string) (string, error) {
	s.echoPrompt(prompt)
	ctx = completion.WithOperation(ctx, op)

	fmt.Fprintln(s.out)
	resp, err := s.client.CompleteStream(ctx, prompt, func(delta string) error {
		_, err := io.WriteString(s.out, delta)
		return err
	})
	fmt.Fprintln(s.out)
	if err != nil {
		return "", fmt.Errorf("AI error: %w", err)
	}
	return resp.Text, nil
}
