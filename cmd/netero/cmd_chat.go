package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"netero/cmd/netero/chat"
	"netero/cmd/netero/ui"
	"netero/internal/ambient"
	"netero/internal/completion"
	"netero/internal/tactile"
	"netero/internal/usage"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session (default)",
	Long: `Start an interactive session.

Slash commands: /help /clean /add /stream /trans /eval /save.
#!(command) runs a shell command; its output is sent with the message.
When stdin is piped it is attached to the first message and the session
reads from the terminal.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

// newClient validates the configuration and returns the traced completion
// client together with its usage tracker.
func newClient(ctx context.Context) (completion.Client, *usage.Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	base, err := completion.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	socket := ""
	if cfg.Trace.Enabled {
		socket = cfg.Trace.Socket
	}
	tracker := usage.NewTracker()
	logger.Debug("completion client ready",
		zap.String("provider", base.Provider()),
		zap.String("model", base.Model()),
		zap.Bool("trace", socket != ""))
	return completion.NewTracingClient(base, tracker, socket), tracker, nil
}

func newRunner() *tactile.Runner {
	return tactile.NewRunner(
		tactile.Shell{Path: cfg.Shell.Shell, Login: cfg.Shell.Login},
		tactile.ExecutorConfig{MaxOutputBytes: cfg.Shell.MaxOutputBytes},
	)
}

func newRenderer(styles ui.Styles) chat.Renderer {
	if !cfg.Chat.Markdown || !ambient.IsTerminal(os.Stdout) {
		return ui.PlainRenderer{}
	}
	return ui.NewMarkdownRenderer(styles.Theme, ui.DefaultWrap)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdin, piped, err := ambient.ReadPiped(os.Stdin)
	if err != nil {
		return err
	}

	client, tracker, err := newClient(ctx)
	if err != nil {
		return err
	}

	var reader chat.LineReader
	if piped {
		if reader, err = chat.OpenTTY(); err != nil {
			return err
		}
	} else {
		reader = chat.NewLinerReader(os.Stdout, cfg.Chat.HistoryFile)
	}
	defer reader.Close()

	styles := ui.DefaultStyles()
	runner := newRunner()
	conf := chat.Config{
		Client:        client,
		Runner:        runner,
		Reader:        reader,
		Renderer:      newRenderer(styles),
		Out:           os.Stdout,
		Err:           os.Stderr,
		Env:           ambient.Default(),
		AssistantName: cfg.Chat.AssistantName,
		Stream:        cfg.Chat.Stream,
		Verbose:       cfg.Chat.Verbose,
		SavePrefix:    cfg.Chat.SavePrefix,
		Stdin:         stdin,
	}
	if ambient.IsTerminal(os.Stderr) {
		conf.Wait = func() func() {
			return ui.StartSpinner(os.Stderr, "thinking", styles).Stop
		}
	}
	session := chat.New(conf)
	runner.SessionID = session.ID()

	logger.Debug("starting session", zap.String("session", session.ID()), zap.Bool("piped", piped))
	err = session.Run(ctx)
	if verbose {
		fmt.Fprintln(os.Stderr, styles.Muted.Render(tracker.Summary()))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
