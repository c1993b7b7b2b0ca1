package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/security/secrets"
	"mercator-hq/chatrelay/pkg/telemetry/logging"
)

const (
	testToken  = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"
	testAPIKey = "sk-live-0123456789abcdef"
)

// execute runs the CLI with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile = ""
	runFlags.logLevel = ""
	runFlags.dryRun = false

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", testToken)
	t.Setenv("API_KEY", testAPIKey)
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	want := map[string]bool{"run": false, "validate": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("expected persistent --config flag")
	}
}

func TestVersionCmd(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = "1.2.3-test", "abc123"
	defer func() { Version, GitCommit = origVersion, origCommit }()

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "Chatrelay 1.2.3-test") || !strings.Contains(out, "Git Commit: abc123") {
		t.Errorf("unexpected version output:\n%s", out)
	}

	out, err = execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version --format json failed: %v", err)
	}
	var info versionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if info.Version != "1.2.3-test" || info.GoVersion == "" || info.Platform == "" {
		t.Errorf("unexpected version info: %+v", info)
	}
}

func TestVersionCmd_BadFormat(t *testing.T) {
	if _, err := execute(t, "version", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestValidateCmd_MasksCredentials(t *testing.T) {
	setCredentials(t)

	for _, format := range []string{"text", "json"} {
		t.Run(format, func(t *testing.T) {
			out, err := execute(t, "validate", "--format", format)
			if err != nil {
				t.Fatalf("validate failed: %v", err)
			}
			if strings.Contains(out, testToken) || strings.Contains(out, testAPIKey) {
				t.Errorf("credentials leaked into output:\n%s", out)
			}
			if !strings.Contains(out, "deepseek-chat") {
				t.Errorf("expected model in output:\n%s", out)
			}
		})
	}
}

func TestValidateCmd_File(t *testing.T) {
	setCredentials(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "provider:\n  model: deepseek-reasoner\nconversation:\n  max_turns: 0\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "validate", "--config", path, "--format", "json")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	var summary configSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if summary.Model != "deepseek-reasoner" || summary.MaxTurns != 0 {
		t.Errorf("file values not applied: %+v", summary)
	}
	if !strings.HasPrefix(summary.Source, path) {
		t.Errorf("expected source to name the file, got %q", summary.Source)
	}
}

func TestValidateCmd_MissingCredentials(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")

	_, err := execute(t, "validate")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("expected exit code %d, got %d", cli.ExitConfig, code)
	}
	var verr config.ValidationError
	if !errors.As(err, &verr) || !verr.HasField("telegram.token") {
		t.Errorf("expected telegram.token validation error, got %v", err)
	}
}

func TestRunCmd_DryRun(t *testing.T) {
	setCredentials(t)

	out, err := execute(t, "run", "--dry-run")
	if err != nil {
		t.Fatalf("run --dry-run failed: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRunCmd_BadLogLevel(t *testing.T) {
	setCredentials(t)

	_, err := execute(t, "run", "--dry-run", "--log-level", "chatty")
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestProviderName(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"https://api.deepseek.com/v1", "api.deepseek.com"},
		{"http://localhost:8080/v1", "localhost"},
		{"not a url", "provider"},
	}

	for _, tt := range tests {
		if got := providerName(tt.baseURL); got != tt.want {
			t.Errorf("providerName(%q) = %q, want %q", tt.baseURL, got, tt.want)
		}
	}
}

func TestProviderConfig(t *testing.T) {
	cfg := config.NewTestConfig()

	pc := providerConfig(cfg)
	if pc.Timeout != cfg.Provider.RequestTimeout() {
		t.Errorf("expected timeout %s, got %s", cfg.Provider.RequestTimeout(), pc.Timeout)
	}
	if pc.ConnectTimeout != cfg.Provider.ConnectTimeout || pc.MaxIdleConns != cfg.Provider.MaxIdleConns {
		t.Errorf("connection settings not mapped: %+v", pc)
	}
	if pc.APIKey != cfg.Provider.APIKey || pc.BaseURL != cfg.Provider.BaseURL {
		t.Errorf("endpoint not mapped: %+v", pc)
	}
}

func TestVerifyTelegram(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantConfig bool
	}{
		{
			name:   "valid token",
			status: http.StatusOK,
			body:   `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Relay","username":"relay_bot"}}`,
		},
		{
			name:       "rejected token",
			status:     http.StatusUnauthorized,
			body:       `{"ok":false,"error_code":401,"description":"Unauthorized"}`,
			wantConfig: true,
		},
		{
			name:   "telegram unavailable",
			status: http.StatusBadGateway,
			body:   `{"ok":false,"error_code":502,"description":"Bad Gateway"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/getMe") {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			cfg := config.NewTestConfig()
			cfg.Telegram.APIBase = ts.URL

			logger, err := logging.New(logging.Config{Writer: &bytes.Buffer{}})
			if err != nil {
				t.Fatal(err)
			}
			a, err := newApp(cfg, logger)
			if err != nil {
				t.Fatalf("newApp failed: %v", err)
			}
			defer a.gateway.Close()

			err = a.verifyTelegram(context.Background())
			if tt.wantConfig {
				if cli.ExitCode(err) != cli.ExitConfig {
					t.Errorf("expected config error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected startup to continue, got %v", err)
			}
		})
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	cfg := config.NewTestConfig()
	cfg.Telegram.APIBase = ts.URL
	cfg.Telemetry.Metrics.Address = "127.0.0.1:0"

	logger, err := logging.New(logging.Config{Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("run returned %v", err)
	}
	if a.sweeper.IsRunning() {
		t.Error("sweeper still running after shutdown")
	}
}

func TestRotatingKey(t *testing.T) {
	dir := t.TempDir()

	fp, err := secrets.NewFileProvider(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()

	source := rotatingKey(fp, "sk-startup")

	key, err := source(context.Background())
	if err != nil || key != "sk-startup" {
		t.Errorf("expected fallback key without a file, got %q, %v", key, err)
	}

	if err := os.WriteFile(filepath.Join(dir, secrets.APIKey), []byte("sk-rotated"), 0o600); err != nil {
		t.Fatal(err)
	}
	_ = fp.Refresh(context.Background())

	key, err = source(context.Background())
	if err != nil || key != "sk-rotated" {
		t.Errorf("expected rotated key, got %q, %v", key, err)
	}
}

func TestNewApp_WatchSecrets(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Secrets.Dir = t.TempDir()
	cfg.Secrets.Watch = true

	logger, err := logging.New(logging.Config{Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.gateway.Close()

	if a.secrets == nil || !a.secrets.Watch {
		t.Fatal("expected a watching secrets provider")
	}
	_ = a.secrets.Close()
}

func TestNewApp_Tracing(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(cfg *config.Config)
		wantConfig  bool
		wantEnabled bool
	}{
		{name: "off by default"},
		{
			name: "enabled",
			mutate: func(cfg *config.Config) {
				cfg.Telemetry.Tracing.Enabled = true
				cfg.Telemetry.Tracing.Sampler = "always"
			},
			wantEnabled: true,
		},
		{
			name: "bad sampler",
			mutate: func(cfg *config.Config) {
				cfg.Telemetry.Tracing.Enabled = true
				cfg.Telemetry.Tracing.Sampler = "sometimes"
			},
			wantConfig: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewTestConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			logger, err := logging.New(logging.Config{Writer: &bytes.Buffer{}})
			if err != nil {
				t.Fatal(err)
			}
			a, err := newApp(cfg, logger)
			if tt.wantConfig {
				if cli.ExitCode(err) != cli.ExitConfig {
					t.Errorf("expected config error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("newApp failed: %v", err)
			}
			defer a.gateway.Close()
			defer a.shutdownTracer()

			if a.tracer.Enabled() != tt.wantEnabled {
				t.Errorf("tracer enabled = %v, want %v", a.tracer.Enabled(), tt.wantEnabled)
			}
		})
	}
}
