package config

import "time"

// Config is the root configuration structure for the chat relay.
// It is built once at startup and passed by pointer to every component.
type Config struct {
	// Telegram contains the messaging transport configuration: bot token,
	// API base URL, and long-poll behavior.
	Telegram TelegramConfig `yaml:"telegram"`

	// Provider contains the completion API configuration: endpoint,
	// credentials, model parameters, and connection timeouts.
	Provider ProviderConfig `yaml:"provider"`

	// Conversation contains history and input governance settings.
	Conversation ConversationConfig `yaml:"conversation"`

	// RateLimit contains per-conversation admission control settings.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets points at a directory of mounted credential files.
	Secrets SecretsConfig `yaml:"secrets"`
}

// TelegramConfig contains configuration for the Telegram Bot API transport.
type TelegramConfig struct {
	// Token is the bot token issued by BotFather. Required.
	// Env: TELEGRAM_TOKEN
	Token string `yaml:"token"`

	// APIBase is the Bot API root URL without the bot token path segment.
	// Default: "https://api.telegram.org"
	APIBase string `yaml:"api_base"`

	// PollTimeout is the long-poll timeout passed to getUpdates.
	// Default: 30s
	PollTimeout time.Duration `yaml:"poll_timeout"`

	// PollBackoff is how long to wait after a failed getUpdates call.
	// Default: 1s
	PollBackoff time.Duration `yaml:"poll_backoff"`

	// MaxConcurrent bounds the number of inbound messages handled at once.
	// Env: MAX_CONCURRENT
	// Default: 16
	MaxConcurrent int `yaml:"max_concurrent"`
}

// ProviderConfig contains configuration for the remote completion API.
type ProviderConfig struct {
	// BaseURL is the OpenAI-compatible API root.
	// Env: BASE_URL
	// Default: "https://api.deepseek.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the completion API. Required.
	// Env: API_KEY (or DEEPSEEK_API_KEY)
	APIKey string `yaml:"api_key"`

	// Model is the model identifier sent with every request.
	// Env: MODEL
	Model string `yaml:"model"`

	// Temperature controls sampling randomness.
	// Env: TEMPERATURE
	// Default: 0.7
	Temperature float64 `yaml:"temperature"`

	// MaxCompletionTokens caps the length of a single reply.
	// Env: MAX_COMPLETION_TOKENS
	// Default: 1024
	MaxCompletionTokens int `yaml:"max_completion_tokens"`

	// ConnectTimeout bounds TCP dial and TLS handshake.
	// Env: CONNECT_TIMEOUT (float seconds)
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ReadTimeout bounds waiting for the response headers and body.
	// Env: READ_TIMEOUT (float seconds)
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds sending the request.
	// Env: WRITE_TIMEOUT (float seconds)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PoolTimeout bounds how long a request waits for a free outbound slot.
	// Env: POOL_TIMEOUT (float seconds)
	PoolTimeout time.Duration `yaml:"pool_timeout"`

	// MaxConcurrent is the ceiling on simultaneous in-flight completions
	// across all conversations.
	// Env: PROVIDER_MAX_CONCURRENT
	// Default: 32
	MaxConcurrent int `yaml:"max_concurrent"`

	// MaxIdleConns is the size of the shared idle connection pool.
	// Default: 32
	MaxIdleConns int `yaml:"max_idle_conns"`
}

// RequestTimeout returns the end-to-end deadline for one completion call.
func (p ProviderConfig) RequestTimeout() time.Duration {
	return p.ConnectTimeout + p.WriteTimeout + p.ReadTimeout
}

// ConversationConfig contains history and input validation settings.
type ConversationConfig struct {
	// SystemPrompt is the directive pinned at the head of every history.
	// Env: SYSTEM_PROMPT
	SystemPrompt string `yaml:"system_prompt"`

	// MaxInputChars rejects inbound text longer than this many characters.
	// Env: MAX_INPUT_CHARS
	// Default: 8000
	MaxInputChars int `yaml:"max_input_chars"`

	// MaxTurns caps history at 1 + 2*MaxTurns messages. Zero keeps only
	// the directive between requests.
	// Env: MAX_TURNS
	// Default: 20
	MaxTurns int `yaml:"max_turns"`

	// CommandPrefix marks inbound text as a bot command.
	// Default: "/"
	CommandPrefix string `yaml:"command_prefix"`

	// FallbackReply replaces an empty model reply.
	FallbackReply string `yaml:"fallback_reply"`
}

// RateLimitConfig contains per-conversation sliding window settings.
type RateLimitConfig struct {
	// Window is the trailing window length.
	// Env: RL_WINDOW_SEC (integer seconds)
	// Default: 20s
	Window time.Duration `yaml:"window"`

	// MaxRequests is the number of requests admitted per window.
	// Env: RL_MAX_REQ
	// Default: 6
	MaxRequests int `yaml:"max_requests"`

	// SweepSchedule is the cron spec for dropping idle windows.
	// Default: "" (once per window)
	SweepSchedule string `yaml:"sweep_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Env: LOG_LEVEL
	Level string `yaml:"level"`

	// Format is json or text.
	// Env: LOG_FORMAT
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains the Prometheus and health HTTP endpoint settings.
type MetricsConfig struct {
	// Enabled controls whether the telemetry HTTP server is started.
	Enabled bool `yaml:"enabled"`

	// Address is the listen address of the telemetry HTTP server.
	// Env: METRICS_ADDRESS
	Address string `yaml:"address"`

	// Path is the URL path serving Prometheus metrics.
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans are
// exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled controls whether spans are recorded and exported.
	// Env: TRACING_ENABLED
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is one of "always", "never", "ratio".
	// Env: TRACING_SAMPLER
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of new traces sampled by the ratio sampler.
	// Env: TRACING_SAMPLE_RATIO
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Env: OTEL_EXPORTER_OTLP_ENDPOINT
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is reported as service.name.
	// Default: "chatrelay"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// SecretsConfig configures file-based credentials. Files named
// "telegram_token" and "api_key" in Dir fill in credentials that neither
// the YAML file nor the environment set.
type SecretsConfig struct {
	// Dir is the secrets directory, for example "/run/secrets".
	// Env: SECRETS_DIR
	Dir string `yaml:"dir"`

	// Watch re-reads api_key when it changes, so the provider key can be
	// rotated without a restart.
	// Env: SECRETS_WATCH
	Watch bool `yaml:"watch"`
}
