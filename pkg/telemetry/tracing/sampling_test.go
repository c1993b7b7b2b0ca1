package tracing

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name        string
		strategy    string
		ratio       float64
		wantErr     bool
		wantSampled bool
	}{
		{name: "always", strategy: SamplerAlways, wantSampled: true},
		{name: "never", strategy: SamplerNever, wantSampled: false},
		{name: "ratio one", strategy: SamplerRatio, ratio: 1.0, wantSampled: true},
		{name: "ratio zero", strategy: SamplerRatio, ratio: 0.0, wantSampled: false},
		{name: "ratio negative", strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{name: "ratio above one", strategy: SamplerRatio, ratio: 1.1, wantErr: true},
		{name: "unknown", strategy: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			result := sampler.ShouldSample(sdktrace.SamplingParameters{
				ParentContext: context.Background(),
				TraceID:       trace.TraceID{0x01},
				Name:          "message.process",
			})
			if sampled := result.Decision == sdktrace.RecordAndSample; sampled != tt.wantSampled {
				t.Errorf("sampled = %v, want %v", sampled, tt.wantSampled)
			}
		})
	}
}

func TestCreateSampler_FollowsSampledParent(t *testing.T) {
	sampler, err := createSampler(SamplerNever, 0)
	if err != nil {
		t.Fatal(err)
	}

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	result := sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: trace.ContextWithSpanContext(context.Background(), parent),
		TraceID:       parent.TraceID(),
		Name:          "gateway.complete",
	})
	if result.Decision != sdktrace.RecordAndSample {
		t.Errorf("expected sampled parent to be honored, got %v", result.Decision)
	}
}
