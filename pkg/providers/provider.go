package providers

import "context"

// Provider is the interface completion adapters implement.
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must return promptly when the context is done.
//
// Example usage:
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := provider.SendCompletion(ctx, &CompletionRequest{
//	    Model: "deepseek-chat",
//	    Messages: []Message{
//	        {Role: RoleSystem, Content: "You are helpful."},
//	        {Role: RoleUser, Content: "Hello!"},
//	    },
//	})
type Provider interface {
	// SendCompletion sends one completion request and returns the normalized
	// response. It makes exactly one attempt; failures are returned as the
	// typed errors in this package.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// GetName returns the provider's configured name.
	GetName() string

	// IsHealthy reports the passive health status.
	IsHealthy() bool

	// GetHealth returns detailed health information.
	GetHealth() ProviderHealth

	// Close releases pooled connections.
	Close() error
}
