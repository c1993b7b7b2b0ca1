package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatrelay",
		Short: "Chatrelay - Telegram to chat completion relay",
		Long: `Chatrelay relays Telegram messages to an OpenAI-compatible chat completion
API (DeepSeek by default) and replies with the model's answer.

Every chat/user pair keeps its own short conversation history and its own
rate limit. Configuration comes from an optional YAML file overlaid by
environment variables (TELEGRAM_TOKEN, API_KEY, MODEL, ...).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional, environment variables override it)")
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newRunCmd(), newValidateCmd(), newVersionCmd())
	return cmd
}

// Execute runs the root command and exits with the matching status code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

// loadConfig loads configuration from the --config file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError(err)
	}
	return cfg, nil
}
