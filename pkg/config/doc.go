// Package config provides configuration management for the chat relay.
//
// Configuration is assembled once at startup from three layers, later layers
// overriding earlier ones:
//
//  1. Default values (defaults.go)
//  2. An optional YAML file
//  3. Environment variables
//
// The result is validated before any component is constructed. Missing
// credentials (TELEGRAM_TOKEN, API_KEY) are validation errors, so the
// process refuses to start instead of failing at runtime.
//
// # Environment Variables
//
// The environment surface uses flat names:
//
//   - TELEGRAM_TOKEN, API_KEY (or DEEPSEEK_API_KEY)
//   - MODEL, BASE_URL, TEMPERATURE, MAX_COMPLETION_TOKENS
//   - MAX_INPUT_CHARS, MAX_TURNS, SYSTEM_PROMPT
//   - RL_WINDOW_SEC, RL_MAX_REQ
//   - CONNECT_TIMEOUT, READ_TIMEOUT, WRITE_TIMEOUT, POOL_TIMEOUT (float seconds)
//   - MAX_CONCURRENT, PROVIDER_MAX_CONCURRENT, POLL_TIMEOUT
//   - LOG_LEVEL, LOG_FORMAT, METRICS_ADDRESS
//
// # Example
//
//	cfg, err := config.Load("/etc/chatrelay/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	limiter := ratelimit.NewLimiter(ratelimit.Config{
//	    Window:      cfg.RateLimit.Window,
//	    MaxRequests: cfg.RateLimit.MaxRequests,
//	})
package config
