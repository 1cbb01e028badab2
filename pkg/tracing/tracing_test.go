package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "otlp grpc", mutate: func(c *Config) { c.Exporter = ExporterOTLPGRPC }},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: true},
		{name: "rate above one", mutate: func(c *Config) { c.SamplingRate = 1.5 }, wantErr: true},
		{name: "unknown exporter", mutate: func(c *Config) { c.Exporter = "zipkin" }, wantErr: true},
		{name: "unknown sampler", mutate: func(c *Config) { c.SamplingType = "sometimes" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStdoutExporterWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Writer = &buf

	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, cfg)
	require.NoError(t, err)
	assert.Same(t, tp, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(ctx, "chat.session")
	span.End()

	require.NoError(t, tp.Shutdown(ctx))
	assert.Contains(t, buf.String(), "chat.session")
	assert.Contains(t, buf.String(), "roomcast")
}

func TestDisabledExportsNothing(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Writer = &buf

	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, cfg)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(ctx, "ignored")
	span.End()
	require.NoError(t, tp.Shutdown(ctx))
	assert.Empty(t, buf.String())
}

func TestOTLPExportersBuildLazily(t *testing.T) {
	ctx := context.Background()
	for _, exp := range []ExporterType{ExporterOTLP, ExporterOTLPGRPC} {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.Exporter = exp
		cfg.Endpoint = "127.0.0.1:4317"
		cfg.Insecure = true

		e, err := newExporter(ctx, cfg)
		require.NoError(t, err, exp)
		require.NoError(t, e.Shutdown(ctx), exp)
	}
}

func TestSamplerSelection(t *testing.T) {
	cfg := DefaultConfig()

	cfg.SamplingType = "always"
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(cfg).Description())

	cfg.SamplingType = "never"
	assert.Equal(t, sdktrace.NeverSample().Description(), newSampler(cfg).Description())

	cfg.SamplingType = "ratio"
	cfg.SamplingRate = 0.5
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.5).Description(), newSampler(cfg).Description())

	t.Setenv("OTEL_TRACES_SAMPLER", "always_off")
	assert.Equal(t, sdktrace.NeverSample().Description(), newSampler(cfg).Description())
}
