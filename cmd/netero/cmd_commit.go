package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"netero/cmd/netero/commit"
	"netero/internal/completion"
)

var commitCmd = &cobra.Command{
	Use:   "commit [hint]",
	Short: "Write a commit message for the staged changes",
	Long: `Write a commit message for the staged changes.

Runs git status and the staged diff, asks the model for a message that
follows the commit convention, and prints it with the convention below it
as # comments, ready for git commit -F - or an editor template.`,
	Example: `  netero commit
  netero commit "mention the parser rewrite" | git commit -F -`,
	RunE: runCommit,
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	changes := commit.StagedChanges(ctx, newRunner())
	prompt := commit.BuildPrompt(changes, strings.Join(args, " "))

	out := cmd.OutOrStdout()
	if verbose {
		fmt.Fprintf(out, "%s\n\n", prompt)
	}

	resp, err := client.Complete(completion.WithOperation(ctx, "commit"), prompt)
	if err != nil {
		return fmt.Errorf("AI error: %w", err)
	}
	fmt.Fprintln(out, commit.Format(resp.Text))
	return nil
}
