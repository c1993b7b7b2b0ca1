package openai

import (
	"context"
	"log/slog"
	"strings"

	"mercator-hq/chatrelay/pkg/providers"
)

// Provider is the adapter for OpenAI-compatible chat completion APIs such
// as DeepSeek, OpenAI, or a local server speaking the same protocol.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new OpenAI-compatible provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = "openai"
	}

	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base URL is required",
		}
	}

	if config.APIKey == "" && config.KeySource == nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}

	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = config.MaxIdleConns
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("completion provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// apiKey returns the key for the next request.
func (p *Provider) apiKey(ctx context.Context) (string, error) {
	cfg := p.GetConfig()
	if cfg.KeySource == nil {
		return cfg.APIKey, nil
	}
	key, err := cfg.KeySource(ctx)
	if err != nil || key == "" {
		slog.Warn("api key source failed", "provider", p.GetName(), "error", err)
		return "", &providers.AuthError{
			Provider: p.GetName(),
			Message:  "API key unavailable",
		}
	}
	return key, nil
}

// SendCompletion posts req to {base_url}/chat/completions once.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	key, err := p.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	url := p.GetConfig().BaseURL + "/chat/completions"
	headers := map[string]string{
		"Authorization": "Bearer " + key,
		"Content-Type":  "application/json",
	}

	var chatResp ChatResponse
	if err := p.DoJSONRequest(ctx, "POST", url, transformRequest(req), &chatResp, headers); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&chatResp)
	if err != nil {
		return nil, &providers.ParseError{
			Provider: p.GetName(),
			Cause:    err,
		}
	}

	slog.Debug("completion request succeeded",
		"provider", p.GetName(),
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
		"finish_reason", resp.FinishReason,
	)

	return resp, nil
}
