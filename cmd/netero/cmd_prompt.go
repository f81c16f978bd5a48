package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"netero/cmd/netero/chat"
	"netero/cmd/netero/ui"
	"netero/internal/ambient"
	"netero/internal/attach"
	"netero/internal/completion"
	"netero/internal/lang"
	"netero/internal/parse"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <request...>",
	Short: "Send a single request and print the answer",
	Long: `Send a single request and print the answer.

Path tokens (./file, ../file, /abs/file, ~/file) that name readable text
files are attached. Piped stdin is attached as STDIN.`,
	Example: `  netero prompt explain ./main.go
  git diff | netero prompt review this change`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrompt,
}

// buildOneShot turns the request words and piped stdin into the one-shot
// prompt.
func buildOneShot(env ambient.Env, args []string, stdin string) string {
	tokens := parse.Tokenize(strings.Join(args, " "))
	remaining, atts := attach.ExtractAttachments(tokens)
	block, _ := attach.FormatAttachedFiles(stdin, atts)
	return chat.BuildRequestPrompt(lang.Normalize(env.Locale()), strings.Join(remaining, " "), block)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdin, _, err := ambient.ReadPiped(os.Stdin)
	if err != nil {
		return err
	}
	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	env := ambient.Default()
	prompt := buildOneShot(env, args, stdin)
	logger.Debug("one-shot request", zap.Int("prompt_bytes", len(prompt)))

	resp, err := client.Complete(completion.WithOperation(ctx, "prompt"), prompt)
	if err != nil {
		return fmt.Errorf("AI error: %w", err)
	}

	out := cmd.OutOrStdout()
	if verbose {
		printExchange(out, env.User(), prompt, resp.Text)
		return nil
	}
	fmt.Fprintln(out, newRenderer(ui.DefaultStyles()).Render(strings.TrimSpace(resp.Text)))
	return nil
}

func printExchange(w io.Writer, user, prompt, response string) {
	fmt.Fprintf(w, "\x1b[1m%s:\x1b[0m\n\n%s\n\n", strings.ToUpper(user), prompt)
	fmt.Fprintf(w, "\x1b[1mLLM:\x1b[0m\n\n%s\n", strings.TrimSpace(response))
}
