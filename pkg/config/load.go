package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/chatrelay/pkg/security/secrets"
)

// Load builds the configuration used by the relay.
//
// The loading sequence is:
//  1. Start from Default()
//  2. Overlay the YAML file at path, if path is non-empty
//  3. Re-apply defaults for fields the file blanked out
//  4. Apply environment variable overrides
//  5. Fill missing credentials from the secrets directory, if configured
//  6. Validate the final configuration
//
// Environment variables always take precedence over file-based configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if errs := applyEnvOverrides(cfg); len(errs) > 0 {
		return nil, ValidationError{Errors: errs}
	}

	if errs := applySecretFiles(cfg); len(errs) > 0 {
		return nil, ValidationError{Errors: errs}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Unparseable values are reported rather than silently ignored.
func applyEnvOverrides(cfg *Config) []FieldError {
	var errs []FieldError

	// Credentials
	if val := os.Getenv("TELEGRAM_TOKEN"); val != "" {
		cfg.Telegram.Token = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv("API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}

	// Telegram overrides
	envInt(&errs, "MAX_CONCURRENT", "telegram.max_concurrent", &cfg.Telegram.MaxConcurrent)
	envSeconds(&errs, "POLL_TIMEOUT", "telegram.poll_timeout", &cfg.Telegram.PollTimeout)

	// Provider overrides
	if val := os.Getenv("BASE_URL"); val != "" {
		cfg.Provider.BaseURL = val
	}
	if val := os.Getenv("MODEL"); val != "" {
		cfg.Provider.Model = val
	}
	if val := os.Getenv("TEMPERATURE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Provider.Temperature = f
		} else {
			errs = append(errs, FieldError{Field: "provider.temperature", Message: fmt.Sprintf("TEMPERATURE %q is not a number", val)})
		}
	}
	envInt(&errs, "MAX_COMPLETION_TOKENS", "provider.max_completion_tokens", &cfg.Provider.MaxCompletionTokens)
	envInt(&errs, "PROVIDER_MAX_CONCURRENT", "provider.max_concurrent", &cfg.Provider.MaxConcurrent)
	envSeconds(&errs, "CONNECT_TIMEOUT", "provider.connect_timeout", &cfg.Provider.ConnectTimeout)
	envSeconds(&errs, "READ_TIMEOUT", "provider.read_timeout", &cfg.Provider.ReadTimeout)
	envSeconds(&errs, "WRITE_TIMEOUT", "provider.write_timeout", &cfg.Provider.WriteTimeout)
	envSeconds(&errs, "POOL_TIMEOUT", "provider.pool_timeout", &cfg.Provider.PoolTimeout)

	// Conversation overrides
	if val := os.Getenv("SYSTEM_PROMPT"); val != "" {
		cfg.Conversation.SystemPrompt = val
	}
	envInt(&errs, "MAX_INPUT_CHARS", "conversation.max_input_chars", &cfg.Conversation.MaxInputChars)
	envInt(&errs, "MAX_TURNS", "conversation.max_turns", &cfg.Conversation.MaxTurns)

	// Rate limit overrides
	if val := os.Getenv("RL_WINDOW_SEC"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.Window = time.Duration(i) * time.Second
		} else {
			errs = append(errs, FieldError{Field: "rate_limit.window", Message: fmt.Sprintf("RL_WINDOW_SEC %q is not an integer", val)})
		}
	}
	envInt(&errs, "RL_MAX_REQ", "rate_limit.max_requests", &cfg.RateLimit.MaxRequests)

	// Telemetry overrides
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("METRICS_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.Address = val
	}
	if val := os.Getenv("TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		} else {
			errs = append(errs, FieldError{Field: "telemetry.tracing.enabled", Message: fmt.Sprintf("TRACING_ENABLED %q is not a boolean", val)})
		}
	}
	if val := os.Getenv("TRACING_SAMPLER"); val != "" {
		cfg.Telemetry.Tracing.Sampler = val
	}
	if val := os.Getenv("TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		} else {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: fmt.Sprintf("TRACING_SAMPLE_RATIO %q is not a number", val)})
		}
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}

	// Secrets overrides
	if val := os.Getenv("SECRETS_DIR"); val != "" {
		cfg.Secrets.Dir = val
	}
	if val := os.Getenv("SECRETS_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Secrets.Watch = b
		} else {
			errs = append(errs, FieldError{Field: "secrets.watch", Message: fmt.Sprintf("SECRETS_WATCH %q is not a boolean", val)})
		}
	}

	return errs
}

// applySecretFiles reads credentials that are still empty from
// cfg.Secrets.Dir. A missing file leaves the field empty for Validate to
// report.
func applySecretFiles(cfg *Config) []FieldError {
	if cfg.Secrets.Dir == "" {
		return nil
	}

	fp, err := secrets.NewFileProvider(cfg.Secrets.Dir, false)
	if err != nil {
		return []FieldError{{Field: "secrets.dir", Message: err.Error()}}
	}
	defer fp.Close()

	var errs []FieldError
	fill := func(dst *string, name, field string) {
		if *dst != "" {
			return
		}
		value, err := fp.GetSecret(context.Background(), name)
		if err != nil {
			if !errors.Is(err, secrets.ErrNotFound) {
				errs = append(errs, FieldError{Field: field, Message: err.Error()})
			}
			return
		}
		*dst = value
	}

	fill(&cfg.Telegram.Token, secrets.TelegramToken, "telegram.token")
	fill(&cfg.Provider.APIKey, secrets.APIKey, "provider.api_key")
	return errs
}

func envInt(errs *[]FieldError, key, field string, dst *int) {
	val := os.Getenv(key)
	if val == "" {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, FieldError{Field: field, Message: fmt.Sprintf("%s %q is not an integer", key, val)})
		return
	}
	*dst = i
}

// envSeconds parses a float number of seconds, e.g. "2.5".
func envSeconds(errs *[]FieldError, key, field string, dst *time.Duration) {
	val := os.Getenv(key)
	if val == "" {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		*errs = append(*errs, FieldError{Field: field, Message: fmt.Sprintf("%s %q is not a number of seconds", key, val)})
		return
	}
	*dst = time.Duration(f * float64(time.Second))
}
