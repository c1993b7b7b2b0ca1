package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := NewTestConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.MaxRequests = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	if len(validationErr.Errors) != 3 {
		t.Errorf("expected 3 errors (token, api key, max requests), got %d: %v", len(validationErr.Errors), validationErr)
	}

	errMsg := validationErr.Error()
	if !strings.Contains(errMsg, "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", errMsg)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(cfg *Config)
		errorField string
	}{
		{
			name:       "negative max turns",
			mutate:     func(cfg *Config) { cfg.Conversation.MaxTurns = -1 },
			errorField: "conversation.max_turns",
		},
		{
			name:       "zero max input chars",
			mutate:     func(cfg *Config) { cfg.Conversation.MaxInputChars = 0 },
			errorField: "conversation.max_input_chars",
		},
		{
			name:       "blank system prompt",
			mutate:     func(cfg *Config) { cfg.Conversation.SystemPrompt = "   " },
			errorField: "conversation.system_prompt",
		},
		{
			name:       "temperature too high",
			mutate:     func(cfg *Config) { cfg.Provider.Temperature = 2.5 },
			errorField: "provider.temperature",
		},
		{
			name:       "base url without scheme",
			mutate:     func(cfg *Config) { cfg.Provider.BaseURL = "api.deepseek.com" },
			errorField: "provider.base_url",
		},
		{
			name:       "zero read timeout",
			mutate:     func(cfg *Config) { cfg.Provider.ReadTimeout = 0 },
			errorField: "provider.read_timeout",
		},
		{
			name:       "negative pool timeout",
			mutate:     func(cfg *Config) { cfg.Provider.PoolTimeout = -time.Second },
			errorField: "provider.pool_timeout",
		},
		{
			name:       "zero window",
			mutate:     func(cfg *Config) { cfg.RateLimit.Window = 0 },
			errorField: "rate_limit.window",
		},
		{
			name:       "zero worker ceiling",
			mutate:     func(cfg *Config) { cfg.Telegram.MaxConcurrent = 0 },
			errorField: "telegram.max_concurrent",
		},
		{
			name:       "bad log level",
			mutate:     func(cfg *Config) { cfg.Telemetry.Logging.Level = "verbose" },
			errorField: "telemetry.logging.level",
		},
		{
			name:       "bad log format",
			mutate:     func(cfg *Config) { cfg.Telemetry.Logging.Format = "xml" },
			errorField: "telemetry.logging.format",
		},
		{
			name:       "metrics path without slash",
			mutate:     func(cfg *Config) { cfg.Telemetry.Metrics.Path = "metrics" },
			errorField: "telemetry.metrics.path",
		},
		{
			name: "tracing sampler unknown",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Tracing.Enabled = true
				cfg.Telemetry.Tracing.Sampler = "sometimes"
			},
			errorField: "telemetry.tracing.sampler",
		},
		{
			name: "tracing ratio out of range",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Tracing.Enabled = true
				cfg.Telemetry.Tracing.SampleRatio = 1.5
			},
			errorField: "telemetry.tracing.sample_ratio",
		},
		{
			name: "tracing without endpoint",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Tracing.Enabled = true
				cfg.Telemetry.Tracing.Endpoint = ""
			},
			errorField: "telemetry.tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if !verr.HasField(tt.errorField) {
				t.Errorf("expected error for field %q, got: %v", tt.errorField, verr)
			}
		})
	}
}

func TestValidate_ZeroMaxTurnsAllowed(t *testing.T) {
	cfg := NewTestConfig()
	cfg.Conversation.MaxTurns = 0

	if err := Validate(cfg); err != nil {
		t.Errorf("expected max_turns 0 to be valid, got %v", err)
	}
}

func TestValidate_DisabledTracingNotChecked(t *testing.T) {
	cfg := NewTestConfig()
	cfg.Telemetry.Tracing.Sampler = "sometimes"

	if err := Validate(cfg); err != nil {
		t.Errorf("expected disabled tracing settings to be ignored, got %v", err)
	}
}

func TestFieldError_Error(t *testing.T) {
	fe := FieldError{Field: "provider.model", Message: "model is required"}
	if fe.Error() != "provider.model: model is required" {
		t.Errorf("unexpected error string: %q", fe.Error())
	}
}
