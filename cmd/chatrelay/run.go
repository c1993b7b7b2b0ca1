package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/telemetry/logging"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		Long: `Start polling Telegram and relaying messages to the completion API.

Examples:
  # Start with environment configuration
  chatrelay run

  # Start with a config file and debug logging
  chatrelay run --config config.yaml --log-level debug

  # Validate config without starting
  chatrelay run --dry-run`,
		RunE: runBot,
	}

	cmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the bot")
	return cmd
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunOverrides(cfg); err != nil {
		return err
	}

	logger, err := logging.New(logging.FromConfig(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return cli.WrapConfigError(err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if err := a.verifyTelegram(ctx); err != nil {
		return err
	}

	logger.Info("starting chatrelay",
		"version", Version,
		"model", cfg.Provider.Model,
		"max_turns", cfg.Conversation.MaxTurns,
		"rate_limit", fmt.Sprintf("%d/%s", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
	)
	return a.run(ctx)
}

// applyRunOverrides applies run flags on top of the loaded configuration.
func applyRunOverrides(cfg *config.Config) error {
	if runFlags.logLevel != "" {
		if _, err := logging.ParseLevel(runFlags.logLevel); err != nil {
			return cli.NewConfigError("--log-level", err.Error())
		}
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	return nil
}
