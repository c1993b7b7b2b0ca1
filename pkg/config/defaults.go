package config

import "time"

// Default values for configuration fields.
const (
	// Telegram defaults
	DefaultTelegramAPIBase       = "https://api.telegram.org"
	DefaultTelegramPollTimeout   = 30 * time.Second
	DefaultTelegramPollBackoff   = 1 * time.Second
	DefaultTelegramMaxConcurrent = 16

	// Provider defaults
	DefaultProviderBaseURL             = "https://api.deepseek.com/v1"
	DefaultProviderModel               = "deepseek-chat"
	DefaultProviderTemperature         = 0.7
	DefaultProviderMaxCompletionTokens = 1024
	DefaultProviderConnectTimeout      = 10 * time.Second
	DefaultProviderReadTimeout         = 60 * time.Second
	DefaultProviderWriteTimeout        = 10 * time.Second
	DefaultProviderPoolTimeout         = 5 * time.Second
	DefaultProviderMaxConcurrent       = 32
	DefaultProviderMaxIdleConns        = 32

	// Conversation defaults
	DefaultSystemPrompt  = "You are a helpful assistant. Answer concisely and accurately."
	DefaultMaxInputChars = 8000
	DefaultMaxTurns      = 20
	DefaultCommandPrefix = "/"
	DefaultFallbackReply = "(the model returned an empty reply)"

	// Rate limit defaults
	DefaultRateLimitWindow      = 20 * time.Second
	DefaultRateLimitMaxRequests = 6

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsAddress   = "127.0.0.1:9090"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "chatrelay"

	// Tracing defaults
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "chatrelay"
	DefaultTracingTimeout     = 10 * time.Second
)

// Default returns a Config populated with default values for every field
// except credentials. File and environment values are layered on top of it,
// so an explicit zero (for example max_turns: 0) survives loading.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			APIBase:       DefaultTelegramAPIBase,
			PollTimeout:   DefaultTelegramPollTimeout,
			PollBackoff:   DefaultTelegramPollBackoff,
			MaxConcurrent: DefaultTelegramMaxConcurrent,
		},
		Provider: ProviderConfig{
			BaseURL:             DefaultProviderBaseURL,
			Model:               DefaultProviderModel,
			Temperature:         DefaultProviderTemperature,
			MaxCompletionTokens: DefaultProviderMaxCompletionTokens,
			ConnectTimeout:      DefaultProviderConnectTimeout,
			ReadTimeout:         DefaultProviderReadTimeout,
			WriteTimeout:        DefaultProviderWriteTimeout,
			PoolTimeout:         DefaultProviderPoolTimeout,
			MaxConcurrent:       DefaultProviderMaxConcurrent,
			MaxIdleConns:        DefaultProviderMaxIdleConns,
		},
		Conversation: ConversationConfig{
			SystemPrompt:  DefaultSystemPrompt,
			MaxInputChars: DefaultMaxInputChars,
			MaxTurns:      DefaultMaxTurns,
			CommandPrefix: DefaultCommandPrefix,
			FallbackReply: DefaultFallbackReply,
		},
		RateLimit: RateLimitConfig{
			Window:      DefaultRateLimitWindow,
			MaxRequests: DefaultRateLimitMaxRequests,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLoggingLevel,
				Format: DefaultLoggingFormat,
			},
			Metrics: MetricsConfig{
				Enabled:   DefaultMetricsEnabled,
				Address:   DefaultMetricsAddress,
				Path:      DefaultMetricsPath,
				Namespace: DefaultMetricsNamespace,
			},
			Tracing: TracingConfig{
				Sampler:     DefaultTracingSampler,
				SampleRatio: DefaultTracingSampleRatio,
				Endpoint:    DefaultTracingEndpoint,
				ServiceName: DefaultTracingServiceName,
				Insecure:    true,
				Timeout:     DefaultTracingTimeout,
			},
		},
	}
}

// ApplyDefaults fills string and duration fields that a YAML file blanked
// out explicitly. Numeric fields are left alone because zero can be a
// deliberate value (MaxTurns) and Validate rejects the ones where it is not.
func ApplyDefaults(cfg *Config) {
	if cfg.Telegram.APIBase == "" {
		cfg.Telegram.APIBase = DefaultTelegramAPIBase
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultProviderBaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultProviderModel
	}
	if cfg.Conversation.CommandPrefix == "" {
		cfg.Conversation.CommandPrefix = DefaultCommandPrefix
	}
	if cfg.Conversation.FallbackReply == "" {
		cfg.Conversation.FallbackReply = DefaultFallbackReply
	}
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Address == "" {
		cfg.Telemetry.Metrics.Address = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
