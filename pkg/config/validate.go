package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "provider.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether a validation error was recorded for field.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
//
// Missing credentials are reported here so that startup fails before any
// component is constructed.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateTelegram(&cfg.Telegram)...)
	errs = append(errs, validateProvider(&cfg.Provider)...)
	errs = append(errs, validateConversation(&cfg.Conversation)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecrets(&cfg.Secrets)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateTelegram(cfg *TelegramConfig) []FieldError {
	var errs []FieldError

	if cfg.Token == "" {
		errs = append(errs, FieldError{
			Field:   "telegram.token",
			Message: "bot token is required (set TELEGRAM_TOKEN)",
		})
	}
	if err := validateURL(cfg.APIBase); err != "" {
		errs = append(errs, FieldError{Field: "telegram.api_base", Message: err})
	}
	if cfg.PollTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telegram.poll_timeout",
			Message: "poll timeout must not be negative",
		})
	}
	if cfg.MaxConcurrent < 1 {
		errs = append(errs, FieldError{
			Field:   "telegram.max_concurrent",
			Message: "max concurrent must be at least 1",
		})
	}

	return errs
}

func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	if cfg.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "provider.api_key",
			Message: "API key is required (set API_KEY)",
		})
	}
	if err := validateURL(cfg.BaseURL); err != "" {
		errs = append(errs, FieldError{Field: "provider.base_url", Message: err})
	}
	if cfg.Model == "" {
		errs = append(errs, FieldError{
			Field:   "provider.model",
			Message: "model is required",
		})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "provider.temperature",
			Message: "temperature must be between 0.0 and 2.0",
		})
	}
	if cfg.MaxCompletionTokens < 1 {
		errs = append(errs, FieldError{
			Field:   "provider.max_completion_tokens",
			Message: "max completion tokens must be at least 1",
		})
	}

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"provider.connect_timeout", cfg.ConnectTimeout},
		{"provider.read_timeout", cfg.ReadTimeout},
		{"provider.write_timeout", cfg.WriteTimeout},
		{"provider.pool_timeout", cfg.PoolTimeout},
	}
	for _, tc := range timeouts {
		if tc.value <= 0 {
			errs = append(errs, FieldError{Field: tc.field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxConcurrent < 1 {
		errs = append(errs, FieldError{
			Field:   "provider.max_concurrent",
			Message: "max concurrent must be at least 1",
		})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "provider.max_idle_conns",
			Message: "max idle connections must not be negative",
		})
	}

	return errs
}

func validateConversation(cfg *ConversationConfig) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		errs = append(errs, FieldError{
			Field:   "conversation.system_prompt",
			Message: "system prompt must not be empty",
		})
	}
	if cfg.MaxInputChars < 1 {
		errs = append(errs, FieldError{
			Field:   "conversation.max_input_chars",
			Message: "max input chars must be at least 1",
		})
	}
	if cfg.MaxTurns < 0 {
		errs = append(errs, FieldError{
			Field:   "conversation.max_turns",
			Message: "max turns must not be negative",
		})
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if cfg.Window <= 0 {
		errs = append(errs, FieldError{
			Field:   "rate_limit.window",
			Message: "window must be positive",
		})
	}
	if cfg.MaxRequests < 1 {
		errs = append(errs, FieldError{
			Field:   "rate_limit.max_requests",
			Message: "max requests must be at least 1",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.Enabled {
		errs = append(errs, validateTracing(&cfg.Tracing)...)
	}

	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Sampler {
	case "always", "never":
	case "ratio":
		if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", cfg.SampleRatio),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (must be always, never, or ratio)", cfg.Sampler),
		})
	}

	if cfg.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}

// validateURL returns an empty string if raw is an absolute http(s) URL.
func validateURL(raw string) string {
	if raw == "" {
		return "URL is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "URL must include a host"
	}
	return ""
}

func validateSecrets(cfg *SecretsConfig) []FieldError {
	if cfg.Watch && cfg.Dir == "" {
		return []FieldError{{Field: "secrets.watch", Message: "watching requires secrets.dir"}}
	}
	return nil
}
