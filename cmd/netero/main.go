package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"netero/internal/config"
	"netero/internal/logging"
)

var (
	// Global flags
	verbose    bool
	provider   string
	configPath string
	stream     bool

	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "netero",
	Short: "netero - conversational terminal assistant",
	Long: `netero is a conversational assistant for the terminal.

Run without arguments to start an interactive session. Inside a session,
#!(command) runs a shell command and hands its output to the model, path
tokens such as ./notes.md attach files, and /help lists the slash commands.

Run with arguments to send a single request; piped stdin is attached.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if configPath == "" {
			configPath = config.DefaultPath()
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if provider != "" {
			cfg.UseProvider(provider)
		}
		if cmd.Flags().Changed("stream") {
			cfg.Chat.Stream = stream
		}
		if verbose {
			cfg.Chat.Verbose = true
		}

		if err := logging.Initialize(config.StateDir(), cfg.Logging.Options(verbose)); err != nil {
			logger.Warn("file logging disabled", zap.Error(err))
		}
		logger.Debug("configuration loaded",
			zap.String("path", configPath),
			zap.String("provider", cfg.LLM.Provider),
			zap.Bool("stream", cfg.Chat.Stream))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runPrompt(cmd, args)
		}
		return runChat(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Echo prompts and enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "Completion provider: netero, codestral, openai, gemini")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/netero/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&stream, "stream", false, "Stream responses as they arrive")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
