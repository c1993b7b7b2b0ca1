package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	testhelpers "mercator-hq/chatrelay/internal/providers"
	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/conversation"
	"mercator-hq/chatrelay/pkg/providers"
	"mercator-hq/chatrelay/pkg/providers/openai"
	"mercator-hq/chatrelay/pkg/telemetry/metrics"
	"mercator-hq/chatrelay/pkg/telemetry/tracing"
)

var testOptions = Options{Model: "deepseek-chat", Temperature: 0.7, MaxTokens: 1024, Timeout: time.Second}

func testHistory() []conversation.Message {
	return []conversation.Message{
		conversation.System("You are helpful."),
		conversation.User("Hello"),
		conversation.Assistant("Hi"),
		conversation.User("How are you?"),
	}
}

func TestComplete_PassesHistoryInOrder(t *testing.T) {
	mock := testhelpers.NewMockProvider("deepseek", "Fine, thanks.")
	gw := New(mock, Config{}, nil, nil)

	reply, err := gw.Complete(context.Background(), testHistory(), testOptions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Fine, thanks." {
		t.Errorf("reply = %q", reply)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly one provider call, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Model != "deepseek-chat" || req.Temperature != 0.7 || req.MaxTokens != 1024 {
		t.Errorf("unexpected request parameters: %+v", req)
	}

	history := testHistory()
	if len(req.Messages) != len(history) {
		t.Fatalf("expected %d messages, got %d", len(history), len(req.Messages))
	}
	for i, m := range history {
		if req.Messages[i].Role != string(m.Role) || req.Messages[i].Content != m.Content {
			t.Errorf("message %d: got %+v, want %+v", i, req.Messages[i], m)
		}
	}
}

func TestComplete_BlankReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", ""},
		{"whitespace", " \n\t ", ""},
		{"padded", "  hi  ", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := New(testhelpers.NewMockProvider("deepseek", tt.content), Config{}, nil, nil)

			reply, err := gw.Complete(context.Background(), testHistory(), testOptions)
			if err != nil {
				t.Fatalf("expected success for blank reply, got %v", err)
			}
			if reply != tt.want {
				t.Errorf("reply = %q, want %q", reply, tt.want)
			}
		})
	}
}

func TestComplete_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"auth", &providers.AuthError{Provider: "deepseek", Message: "invalid key"}, KindAuth},
		{"rate limited", &providers.RateLimitError{Provider: "deepseek", RetryAfter: 5 * time.Second}, KindRateLimited},
		{"timeout", &providers.TimeoutError{Provider: "deepseek", Timeout: time.Second}, KindTimeout},
		{"parse", &providers.ParseError{Provider: "deepseek", Cause: errors.New("bad json")}, KindMalformedResponse},
		{"server error", &providers.ProviderError{Provider: "deepseek", StatusCode: 502}, KindTransport},
		{"connection refused", &providers.ProviderError{Provider: "deepseek", Message: "request failed"}, KindTransport},
		{"bare deadline", context.DeadlineExceeded, KindTimeout},
		{"unknown", errors.New("boom"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockProvider("deepseek", "")
			mock.SetError(tt.err)
			gw := New(mock, Config{}, nil, nil)

			_, err := gw.Complete(context.Background(), testHistory(), testOptions)

			var gwErr *Error
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected *Error, got %T: %v", err, err)
			}
			if gwErr.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", gwErr.Kind, tt.kind)
			}
			if !strings.HasPrefix(err.Error(), string(tt.kind)+": ") {
				t.Errorf("error string %q should start with kind", err.Error())
			}
			if !errors.Is(err, tt.err) {
				t.Error("expected provider error to remain in the chain")
			}
			if mock.RequestCount() != 1 {
				t.Errorf("expected exactly one attempt, got %d", mock.RequestCount())
			}
		})
	}
}

func newTestTracer(t *testing.T) (*tracing.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.New(&config.TracingConfig{
		Enabled:     true,
		Sampler:     tracing.SamplerAlways,
		ServiceName: "chatrelay-test",
	}, tracing.WithExporter(exporter))
	if err != nil {
		t.Fatalf("tracing.New() error = %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestComplete_Span(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
		wantKind string
	}{
		{name: "success", wantCode: codes.Ok},
		{name: "auth failure", err: &providers.AuthError{Provider: "deepseek", Message: "invalid key"}, wantCode: codes.Error, wantKind: string(KindAuth)},
		{name: "timeout", err: &providers.TimeoutError{Provider: "deepseek", Timeout: time.Second}, wantCode: codes.Error, wantKind: string(KindTimeout)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, exporter := newTestTracer(t)

			var providerSpan trace.SpanContext
			mock := testhelpers.NewMockProvider("deepseek", "")
			mock.SetFunc(func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
				providerSpan = trace.SpanContextFromContext(ctx)
				if tt.err != nil {
					return nil, tt.err
				}
				return &providers.CompletionResponse{Content: "Fine.", FinishReason: providers.FinishReasonStop}, nil
			})
			gw := New(mock, Config{Tracer: tracer}, nil, nil)

			_, _ = gw.Complete(context.Background(), testHistory(), testOptions)

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			span := spans[0]
			if span.Name != "gateway.complete" || span.SpanKind != trace.SpanKindClient {
				t.Errorf("unexpected span %q kind %v", span.Name, span.SpanKind)
			}
			if span.Status.Code != tt.wantCode {
				t.Errorf("status = %v, want %v", span.Status.Code, tt.wantCode)
			}
			if providerSpan.SpanID() != span.SpanContext.SpanID() {
				t.Error("provider call did not run inside the gateway span")
			}

			attrs := map[attribute.Key]attribute.Value{}
			for _, kv := range span.Attributes {
				attrs[kv.Key] = kv.Value
			}
			if got := attrs[tracing.AttrModel].AsString(); got != "deepseek-chat" {
				t.Errorf("model attribute = %q", got)
			}
			if got := attrs[tracing.AttrProvider].AsString(); got != "deepseek" {
				t.Errorf("provider attribute = %q", got)
			}
			if got := attrs[tracing.AttrHistoryLength].AsInt64(); got != int64(len(testHistory())) {
				t.Errorf("history length attribute = %d", got)
			}
			if got := attrs[tracing.AttrGatewayKind].AsString(); got != tt.wantKind {
				t.Errorf("kind attribute = %q, want %q", got, tt.wantKind)
			}
		})
	}
}

func TestClassify_DetailOmitsResponseBody(t *testing.T) {
	err := Classify(&providers.ProviderError{
		Provider:   "deepseek",
		StatusCode: 400,
		Message:    `{"error":"key sk-secret rejected"}`,
	})
	if strings.Contains(err.Detail, "sk-secret") {
		t.Errorf("detail leaked response body: %q", err.Detail)
	}
	if !strings.Contains(err.Detail, "400") {
		t.Errorf("detail should carry the status, got %q", err.Detail)
	}
}

func TestClassify_PassesThroughGatewayError(t *testing.T) {
	orig := &Error{Kind: KindAuth, Detail: "x"}
	if got := Classify(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Errorf("expected the same *Error, got %+v", got)
	}
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestComplete_RequestTimeout(t *testing.T) {
	mock := testhelpers.NewMockProvider("deepseek", "")
	mock.SetFunc(func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
		<-ctx.Done()
		return nil, &providers.TimeoutError{Provider: "deepseek", Timeout: 50 * time.Millisecond, Cause: ctx.Err()}
	})
	gw := New(mock, Config{}, nil, nil)

	opts := testOptions
	opts.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := gw.Complete(context.Background(), testHistory(), opts)
	if time.Since(start) > time.Second {
		t.Error("timeout was not applied to the provider call")
	}

	var gwErr *Error
	if !errors.As(err, &gwErr) || gwErr.Kind != KindTimeout {
		t.Fatalf("expected timeout kind, got %v", err)
	}
}

func TestComplete_EmptyHistory(t *testing.T) {
	mock := testhelpers.NewMockProvider("deepseek", "x")
	gw := New(mock, Config{}, nil, nil)

	if _, err := gw.Complete(context.Background(), nil, testOptions); err == nil {
		t.Fatal("expected error for empty history")
	}
	if mock.RequestCount() != 0 {
		t.Error("provider should not be called with empty history")
	}
}

func TestComplete_ConcurrencyCeiling(t *testing.T) {
	const ceiling = 2

	var inFlight, peak atomic.Int32
	release := make(chan struct{})

	mock := testhelpers.NewMockProvider("deepseek", "")
	mock.SetFunc(func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return &providers.CompletionResponse{Content: "ok"}, nil
	})

	gw := New(mock, Config{MaxConcurrent: ceiling, PoolTimeout: 5 * time.Second}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := gw.Complete(context.Background(), testHistory(), testOptions); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	testhelpers.WaitForCondition(t, time.Second, func() bool { return inFlight.Load() == ceiling }, "slots never filled")
	close(release)
	wg.Wait()

	if peak.Load() > ceiling {
		t.Errorf("peak in-flight %d exceeded ceiling %d", peak.Load(), ceiling)
	}
}

func TestComplete_PoolTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	mock := testhelpers.NewMockProvider("deepseek", "")
	mock.SetFunc(func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
		<-block
		return &providers.CompletionResponse{Content: "late"}, nil
	})

	gw := New(mock, Config{MaxConcurrent: 1, PoolTimeout: 30 * time.Millisecond}, nil, nil)

	go func() { _, _ = gw.Complete(context.Background(), testHistory(), testOptions) }()
	testhelpers.WaitForCondition(t, time.Second, func() bool { return mock.RequestCount() == 1 }, "first call never started")

	_, err := gw.Complete(context.Background(), testHistory(), testOptions)

	var gwErr *Error
	if !errors.As(err, &gwErr) || gwErr.Kind != KindTimeout {
		t.Fatalf("expected timeout kind waiting for a slot, got %v", err)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("second call should not reach the provider, got %d calls", mock.RequestCount())
	}
}

func TestComplete_CancelledWhileWaitingForSlot(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	mock := testhelpers.NewMockProvider("deepseek", "")
	mock.SetFunc(func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
		<-block
		return &providers.CompletionResponse{Content: "late"}, nil
	})

	gw := New(mock, Config{MaxConcurrent: 1, PoolTimeout: time.Minute}, nil, nil)
	go func() { _, _ = gw.Complete(context.Background(), testHistory(), testOptions) }()
	testhelpers.WaitForCondition(t, time.Second, func() bool { return mock.RequestCount() == 1 }, "first call never started")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Complete(ctx, testHistory(), testOptions)

	var gwErr *Error
	if !errors.As(err, &gwErr) || gwErr.Kind != KindTransport {
		t.Fatalf("expected transport kind for cancelled wait, got %v", err)
	}
}

func TestComplete_Metrics(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "gw"}, prometheus.NewRegistry())

	mock := testhelpers.NewMockProvider("deepseek", "ok")
	gw := New(mock, Config{}, nil, collector)

	_, _ = gw.Complete(context.Background(), testHistory(), testOptions)
	mock.SetError(&providers.AuthError{Provider: "deepseek"})
	_, _ = gw.Complete(context.Background(), testHistory(), testOptions)

	reg := collector.Registry()
	count, err := testutil.GatherAndCount(reg, "gw_gateway_requests_total", "gw_gateway_errors_total")
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	// One model series plus one auth error series.
	if count != 2 {
		t.Errorf("expected 2 series, got %d", count)
	}
}

func TestComplete_AgainstHTTPProvider(t *testing.T) {
	server := testhelpers.NewMockServer()
	defer server.Close()

	server.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockChatResponse("  Hi there  ", "deepseek-chat"),
	})

	provider, err := openai.NewProvider(testhelpers.TestConfigWithURL("deepseek", server.URL()+"/v1"))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	gw := New(provider, Config{MaxConcurrent: 4, PoolTimeout: time.Second}, nil, nil)
	defer gw.Close()

	reply, err := gw.Complete(context.Background(), testHistory(), testOptions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Hi there" {
		t.Errorf("reply = %q, want %q", reply, "Hi there")
	}
	if !gw.Healthy() || gw.Name() != "deepseek" {
		t.Errorf("unexpected provider state: healthy=%v name=%q", gw.Healthy(), gw.Name())
	}

	server.SetResponse("/v1/chat/completions", testhelpers.MockErrorResponse(401, "invalid api key"))
	_, err = gw.Complete(context.Background(), testHistory(), testOptions)

	var gwErr *Error
	if !errors.As(err, &gwErr) || gwErr.Kind != KindAuth {
		t.Fatalf("expected auth kind, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.NewTestConfig()
	opts := OptionsFromConfig(&cfg.Provider)

	if opts.Model != cfg.Provider.Model || opts.MaxTokens != cfg.Provider.MaxCompletionTokens {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Timeout != cfg.Provider.RequestTimeout() {
		t.Errorf("timeout = %v, want %v", opts.Timeout, cfg.Provider.RequestTimeout())
	}
}
