package providers

import (
	"context"
	"sync"

	"mercator-hq/chatrelay/pkg/providers"
)

// CompletionFunc scripts a MockProvider's reply to one request.
type CompletionFunc func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error)

// MockProvider is an in-memory providers.Provider for tests. It records
// every request and answers with a scripted function.
type MockProvider struct {
	name string

	mu       sync.Mutex
	fn       CompletionFunc
	requests []*providers.CompletionRequest
	healthy  bool
	closed   bool
}

// NewMockProvider creates a mock that replies with reply to every request.
func NewMockProvider(name, reply string) *MockProvider {
	m := &MockProvider{name: name, healthy: true}
	m.SetReply(reply)
	return m
}

// SetReply makes every subsequent request succeed with content.
func (m *MockProvider) SetReply(content string) {
	m.SetFunc(func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
		return &providers.CompletionResponse{
			ID:           "mock-1",
			Model:        req.Model,
			Content:      content,
			FinishReason: providers.FinishReasonStop,
		}, nil
	})
}

// SetError makes every subsequent request fail with err.
func (m *MockProvider) SetError(err error) {
	m.SetFunc(func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
		return nil, err
	})
}

// SetFunc replaces the scripted behaviour.
func (m *MockProvider) SetFunc(fn CompletionFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
}

// SetHealthy sets the reported health status.
func (m *MockProvider) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// SendCompletion records req and runs the scripted function.
func (m *MockProvider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	m.mu.Lock()
	clone := *req
	clone.Messages = append([]providers.Message(nil), req.Messages...)
	m.requests = append(m.requests, &clone)
	fn := m.fn
	m.mu.Unlock()

	return fn(ctx, req)
}

// Requests returns every request received so far.
func (m *MockProvider) Requests() []*providers.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*providers.CompletionRequest(nil), m.requests...)
}

// RequestCount returns the number of requests received.
func (m *MockProvider) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// GetName returns the provider name.
func (m *MockProvider) GetName() string {
	return m.name
}

// IsHealthy returns the current health status.
func (m *MockProvider) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// GetHealth returns detailed health information.
func (m *MockProvider) GetHealth() providers.ProviderHealth {
	return providers.ProviderHealth{IsHealthy: m.IsHealthy()}
}

// Close marks the provider closed.
func (m *MockProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockProvider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
