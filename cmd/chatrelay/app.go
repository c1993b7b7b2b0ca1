package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/gateway"
	"mercator-hq/chatrelay/pkg/history"
	"mercator-hq/chatrelay/pkg/limits/ratelimit"
	"mercator-hq/chatrelay/pkg/providers"
	"mercator-hq/chatrelay/pkg/providers/openai"
	"mercator-hq/chatrelay/pkg/relay"
	"mercator-hq/chatrelay/pkg/security/secrets"
	"mercator-hq/chatrelay/pkg/server"
	"mercator-hq/chatrelay/pkg/telegram"
	"mercator-hq/chatrelay/pkg/telemetry/metrics"
	"mercator-hq/chatrelay/pkg/telemetry/tracing"
)

// pollSlack is added to the long-poll timeout to get the HTTP client
// timeout for Telegram requests.
const pollSlack = 10 * time.Second

// tracerFlushTimeout bounds the final span flush on shutdown.
const tracerFlushTimeout = 5 * time.Second

// app holds the wired components of a running bot.
type app struct {
	server   *server.Server
	sweeper  *ratelimit.Sweeper
	gateway  *gateway.Gateway
	telegram *telegram.Client
	secrets  *secrets.FileProvider
	tracer   *tracing.Tracer
	logger   *slog.Logger
}

// newApp builds every component from cfg. Nothing is started.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(Version))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}
	if tracer.Enabled() {
		logger.Info("tracing enabled",
			"endpoint", cfg.Telemetry.Tracing.Endpoint,
			"sampler", cfg.Telemetry.Tracing.Sampler,
		)
	}

	pc := providerConfig(cfg)
	var keyFiles *secrets.FileProvider
	if cfg.Secrets.Watch {
		fp, err := secrets.NewFileProvider(cfg.Secrets.Dir, true)
		if err != nil {
			_ = tracer.Shutdown(context.Background())
			return nil, cli.NewConfigError("secrets.dir", err.Error())
		}
		keyFiles = fp
		pc.KeySource = rotatingKey(fp, cfg.Provider.APIKey)
		logger.Info("watching secrets directory for api key rotation", "dir", cfg.Secrets.Dir)
	}

	provider, err := openai.NewProvider(pc)
	if err != nil {
		if keyFiles != nil {
			_ = keyFiles.Close()
		}
		_ = tracer.Shutdown(context.Background())
		return nil, cli.WrapConfigError(err)
	}

	gw := gateway.New(provider, gateway.Config{
		MaxConcurrent: cfg.Provider.MaxConcurrent,
		PoolTimeout:   cfg.Provider.PoolTimeout,
		Tracer:        tracer,
	}, logger, collector)

	store := history.NewStore(cfg.Conversation.SystemPrompt, cfg.Conversation.MaxTurns)
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Window:        cfg.RateLimit.Window,
		MaxRequests:   cfg.RateLimit.MaxRequests,
		SweepSchedule: cfg.RateLimit.SweepSchedule,
	})

	relayConfig := relay.ConfigFromConfig(cfg)
	relayConfig.Tracer = tracer
	service := relay.NewService(store, limiter, gw, relayConfig, logger, collector)
	client := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.Token, cfg.Telegram.PollTimeout+pollSlack)

	srv := server.New(cfg, server.Deps{
		Transport: client,
		Relay:     service,
		History:   store,
		Limiter:   limiter,
		Gateway:   gw,
		Metrics:   collector,
		Tracer:    tracer,
		Logger:    logger,
		Build:     server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
	})

	return &app{
		server:   srv,
		sweeper:  ratelimit.NewSweeper(limiter, logger),
		gateway:  gw,
		telegram: client,
		secrets:  keyFiles,
		tracer:   tracer,
		logger:   logger,
	}, nil
}

// rotatingKey reads the api_key secret on every request, falling back to
// the key resolved at startup when the file is absent.
func rotatingKey(fp *secrets.FileProvider, fallback string) providers.KeySource {
	return func(ctx context.Context) (string, error) {
		key, err := fp.GetSecret(ctx, secrets.APIKey)
		if errors.Is(err, secrets.ErrNotFound) {
			return fallback, nil
		}
		return key, err
	}
}

// providerConfig maps the provider section onto the HTTP provider's
// connection settings.
func providerConfig(cfg *config.Config) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:            providerName(cfg.Provider.BaseURL),
		BaseURL:         cfg.Provider.BaseURL,
		APIKey:          cfg.Provider.APIKey,
		Timeout:         cfg.Provider.RequestTimeout(),
		ConnectTimeout:  cfg.Provider.ConnectTimeout,
		MaxIdleConns:    cfg.Provider.MaxIdleConns,
		IdleConnTimeout: 90 * time.Second,
	}
}

// providerName labels metrics and logs with the API host.
func providerName(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "provider"
	}
	return u.Hostname()
}

// verifyTelegram checks the bot token with getMe. A rejected token is a
// configuration error; other failures are logged and startup continues,
// since polling retries on its own.
func (a *app) verifyTelegram(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	me, err := a.telegram.GetMe(ctx)
	if err != nil {
		var apiErr *telegram.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusNotFound) {
			return cli.NewConfigError("telegram.token", fmt.Sprintf("rejected by Telegram: %s", apiErr.Description))
		}
		a.logger.Warn("could not verify bot token, continuing", "error", err)
		return nil
	}

	a.logger.Info("connected to telegram", "bot_username", me.Username, "bot_id", me.ID)
	return nil
}

// run starts the sweeper and the server and blocks until ctx is cancelled
// and in-flight messages are drained.
func (a *app) run(ctx context.Context) error {
	if err := a.sweeper.Start(ctx); err != nil {
		return cli.WrapConfigError(err)
	}
	defer a.sweeper.Stop()
	defer a.shutdownTracer()
	defer a.gateway.Close()
	if a.secrets != nil {
		defer a.secrets.Close()
	}

	if err := a.server.Run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// shutdownTracer flushes buffered spans. ctx is already cancelled when this
// runs, so it gets a fresh deadline.
func (a *app) shutdownTracer() {
	ctx, cancel := context.WithTimeout(context.Background(), tracerFlushTimeout)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to flush traces", "error", err)
	}
}
