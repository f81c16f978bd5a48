package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"netero/internal/trace"
)

var traceSocket string

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Print prompts and responses sent by other netero processes",
	Long: `Bind the trace socket and print every prompt, response and error that
netero processes with trace.enabled (or NETERO_TRACE=1) send to it.
Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		socket := traceSocket
		if socket == "" {
			socket = cfg.Trace.Socket
		}
		l, err := trace.Bind(socket)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", l.Path())
		return l.Serve(ctx, cmd.OutOrStdout())
	},
}

func init() {
	traceCmd.Flags().StringVar(&traceSocket, "socket", "", "Socket path (default: trace.socket from config)")
}
