// Package openai implements the adapter for OpenAI-compatible chat
// completion APIs.
//
// DeepSeek, OpenAI and most self-hosted inference servers accept the same
// /chat/completions request shape, so one adapter serves all of them; only
// the base URL and credential differ.
//
// # Basic Usage
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    Name:    "deepseek",
//	    BaseURL: "https://api.deepseek.com/v1",
//	    APIKey:  cfg.Provider.APIKey,
//	    Timeout: 80 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model:       "deepseek-chat",
//	    Messages:    msgs,
//	    Temperature: 0.7,
//	    MaxTokens:   1024,
//	})
//
// # Errors
//
// Each call makes one attempt. HTTP 401/403 yield providers.AuthError, 429
// yields providers.RateLimitError, deadline expiry yields
// providers.TimeoutError, and a body without choices or a message yields
// providers.ParseError. An empty message content is returned as-is.
package openai
