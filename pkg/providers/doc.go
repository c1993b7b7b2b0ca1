// Package providers defines the completion provider abstraction and the
// shared HTTP machinery adapters are built on.
//
// # Provider Interface
//
// A Provider sends one chat completion request and returns a normalized
// CompletionResponse:
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model:    "deepseek-chat",
//	    Messages: msgs,
//	})
//
// # HTTPProvider
//
// HTTPProvider owns a pooled http.Client that is shared by every caller.
// Dial and TLS handshake are bounded by ConnectTimeout, the whole exchange
// by Timeout, and the caller's context deadline always applies. Each call
// makes exactly one attempt.
//
// # Errors
//
// Failures are reported as typed errors so callers can classify them with
// errors.As:
//
//   - AuthError: HTTP 401 or 403
//   - RateLimitError: HTTP 429, with RetryAfter when the header is present
//   - TimeoutError: deadline exceeded, network timeout, HTTP 408 or 504
//   - ParseError: body could not be read or decoded, or lacked a reply
//   - ProviderError: any other non-2xx status, or a transport failure
//     (StatusCode 0)
//   - ConfigError: invalid adapter configuration
//
// # Health
//
// Health is passive: three consecutive failed requests mark the provider
// unhealthy and the next success marks it healthy again. No background
// probes are sent.
package providers
