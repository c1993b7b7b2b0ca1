package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/chatrelay/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid JSON config", config: Config{Level: "info", Format: "json"}},
		{name: "valid text config", config: Config{Level: "debug", Format: "text"}},
		{name: "defaults", config: Config{}},
		{name: "upper case", config: Config{Level: "WARN", Format: "TEXT"}},
		{name: "invalid log level", config: Config{Level: "invalid"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "console"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}

			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Writer: buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Info("filtered")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record should be written")
	}
}

func TestLogger_RedactsSecrets(t *testing.T) {
	const token = "987654:AAF-secret-bot-token-value-xyz"
	const apiKey = "plain-provider-key"

	buf := &bytes.Buffer{}
	logger, err := New(Config{Format: "json", Secrets: []string{token, apiKey}, Writer: buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Info("calling https://api.telegram.org/bot"+token+"/getUpdates",
		"detail", "key "+apiKey+" rejected",
		"telegram_token", "anything",
		"prompt_tokens", 12,
	)

	out := buf.String()
	if strings.Contains(out, token) {
		t.Errorf("bot token leaked: %s", out)
	}
	if strings.Contains(out, apiKey) {
		t.Errorf("api key leaked: %s", out)
	}

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["telegram_token"] != "***" {
		t.Errorf("expected sensitive key masked, got %v", record["telegram_token"])
	}
	if record["prompt_tokens"] != float64(12) {
		t.Errorf("expected token count untouched, got %v", record["prompt_tokens"])
	}
}

func TestLogger_RedactsErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Writer: buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Error("request failed", "error", errString("auth failed for sk-abcdef123456"))

	if strings.Contains(buf.String(), "abcdef123456") {
		t.Errorf("api key leaked through error value: %s", buf.String())
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Writer: buf})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithConversation(ctx, -100, 42)
	logger.With("component", "relay").InfoContext(ctx, "handled")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	want := map[string]any{
		"request_id": "req-123",
		"chat_id":    float64(-100),
		"user_id":    float64(42),
		"component":  "relay",
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("%s = %v, want %v", k, record[k], v)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Telemetry.Logging.Level = "debug"

	lc := FromConfig(cfg, nil)
	if lc.Level != "debug" {
		t.Errorf("expected level debug, got %q", lc.Level)
	}
	if len(lc.Secrets) != 2 || lc.Secrets[0] != cfg.Telegram.Token || lc.Secrets[1] != cfg.Provider.APIKey {
		t.Errorf("expected token and api key as secrets, got %v", lc.Secrets)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
