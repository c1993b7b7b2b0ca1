package providers

import (
	"context"
	"time"
)

// Message is a single chat message in provider-agnostic form.
type Message struct {
	// Role identifies the message sender (system, user, assistant).
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is a provider-agnostic chat completion request.
type CompletionRequest struct {
	// Model is the model identifier (e.g., "deepseek-chat").
	Model string `json:"model"`

	// Messages is the ordered conversation history, system message first.
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0).
	Temperature float64 `json:"temperature"`

	// MaxTokens bounds the length of the generated reply.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionResponse is a normalized chat completion response.
type CompletionResponse struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	FinishReason string     `json:"finish_reason"`
	Usage        TokenUsage `json:"usage"`
	Created      int64      `json:"created"`
}

// ProviderHealth tracks the passive health of a provider, derived from the
// outcome of real requests.
type ProviderHealth struct {
	// IsHealthy is false after three consecutive failed requests.
	IsHealthy bool

	// LastCheck is the time of the most recent request outcome.
	LastCheck time.Time

	// LastError is the most recent error (nil if the last request succeeded).
	LastError error

	// ConsecutiveFailures counts sequential failed requests.
	ConsecutiveFailures int

	// LastSuccessfulRequest is the time of the last successful request.
	LastSuccessfulRequest time.Time

	TotalRequests  int64
	FailedRequests int64
}

// KeySource returns the current API key.
type KeySource func(ctx context.Context) (string, error)

// ProviderConfig contains the settings an adapter needs.
type ProviderConfig struct {
	// Name is the provider identifier used in logs and errors.
	Name string

	// BaseURL is the API endpoint base URL, e.g. "https://api.deepseek.com/v1".
	BaseURL string

	// APIKey is the bearer credential.
	APIKey string

	// KeySource, when set, is consulted on every request instead of APIKey
	// so a rotated key takes effect without a restart.
	KeySource KeySource

	// Timeout bounds a whole request, connection through body read.
	Timeout time.Duration

	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration

	// MaxIdleConns is the size of the shared idle connection pool.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the idle pool size per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)
