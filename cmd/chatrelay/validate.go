package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/telemetry/logging"
)

// configSummary is the non-secret view of a loaded configuration.
type configSummary struct {
	Valid           bool   `json:"valid"`
	Source          string `json:"source"`
	TelegramToken   string `json:"telegram_token"`
	ProviderBaseURL string `json:"provider_base_url"`
	ProviderAPIKey  string `json:"provider_api_key"`
	Model           string `json:"model"`
	MaxTurns        int    `json:"max_turns"`
	MaxInputChars   int    `json:"max_input_chars"`
	RateLimit       string `json:"rate_limit"`
	MetricsAddress  string `json:"metrics_address,omitempty"`
}

func (s configSummary) String() string {
	var b strings.Builder
	b.WriteString("✓ Configuration valid\n")
	fmt.Fprintf(&b, "  Source:         %s\n", s.Source)
	fmt.Fprintf(&b, "  Telegram token: %s\n", s.TelegramToken)
	fmt.Fprintf(&b, "  Provider:       %s (key %s)\n", s.ProviderBaseURL, s.ProviderAPIKey)
	fmt.Fprintf(&b, "  Model:          %s\n", s.Model)
	fmt.Fprintf(&b, "  History:        %d turns\n", s.MaxTurns)
	fmt.Fprintf(&b, "  Input limit:    %d characters\n", s.MaxInputChars)
	fmt.Fprintf(&b, "  Rate limit:     %s\n", s.RateLimit)
	if s.MetricsAddress != "" {
		fmt.Fprintf(&b, "  Telemetry:      %s\n", s.MetricsAddress)
	}
	return b.String()
}

func summarize(cfg *config.Config, source string) configSummary {
	s := configSummary{
		Valid:           true,
		Source:          source,
		TelegramToken:   logging.RedactAPIKey(cfg.Telegram.Token),
		ProviderBaseURL: cfg.Provider.BaseURL,
		ProviderAPIKey:  logging.RedactAPIKey(cfg.Provider.APIKey),
		Model:           cfg.Provider.Model,
		MaxTurns:        cfg.Conversation.MaxTurns,
		MaxInputChars:   cfg.Conversation.MaxInputChars,
		RateLimit:       fmt.Sprintf("%d requests per %s", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
	}
	if cfg.Telemetry.Metrics.Address != "" {
		s.MetricsAddress = cfg.Telemetry.Metrics.Address
	}
	return s
}

func newValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Load the configuration file and environment overrides, validate them, and
print a summary with credentials masked. Exits with status 2 when the
configuration is invalid.

Examples:
  # Validate environment-only configuration
  chatrelay validate

  # Validate a file and print JSON
  chatrelay validate --config config.yaml --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := cli.NewFormatter(format)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			source := "environment"
			if cfgFile != "" {
				source = cfgFile + " + environment"
			}
			return formatter.FormatTo(cmd.OutOrStdout(), summarize(cfg, source))
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")
	return cmd
}
