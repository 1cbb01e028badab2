package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "nil config", config: nil},
		{name: "console output", config: &Config{Level: InfoLevel, Format: JSONFormat, Console: true}},
		{name: "file output", config: &Config{Format: JSONFormat, File: filepath.Join(dir, "app.log")}},
		{name: "rotate output", config: &Config{Rotate: &RotateConfig{Filename: filepath.Join(dir, "rotate.log")}}},
		{name: "unknown format", config: &Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_ = l.Sync()
		})
	}
}

func TestPresets(t *testing.T) {
	prod, err := NewProduction()
	require.NoError(t, err)
	assert.Equal(t, InfoLevel, prod.Level())

	dev, err := NewDevelopment()
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, dev.Level())

	// 预设之后的选项覆盖预设
	quiet, err := NewProduction(WithLevel(ErrorLevel))
	require.NoError(t, err)
	assert.Equal(t, ErrorLevel, quiet.Level())
}

func TestOptions(t *testing.T) {
	l, err := NewWithOptions(WithLevelName("warning"))
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, l.Level())

	_, err = NewWithOptions(WithLevelName("verbose"))
	assert.Error(t, err)

	cfg := &Config{}
	for _, opt := range []Option{WithFileOutput(""), WithRotateOutput(nil), WithRotateOutput(&RotateConfig{})} {
		opt(cfg)
	}
	assert.Empty(t, cfg.File)
	assert.Nil(t, cfg.Rotate)

	rotate := &RotateConfig{Filename: filepath.Join(t.TempDir(), "app.log")}
	WithRotateOutput(rotate)(cfg)
	assert.Same(t, rotate, cfg.Rotate)
}

func TestSetLevelAppliesToOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.log")
	l, err := NewWithOptions(WithLevel(WarnLevel), WithFileOutput(path))
	require.NoError(t, err)

	l.Info("hidden")
	l.SetLevel(DebugLevel)
	l.Info("visible")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
	assert.Equal(t, DebugLevel, l.Level())
}

func TestWithSharesLevel(t *testing.T) {
	l, err := NewWithOptions(WithLevel(InfoLevel), WithFileOutput(filepath.Join(t.TempDir(), "x.log")))
	require.NoError(t, err)

	child := l.With(zap.String("component", "chat"))
	l.SetLevel(ErrorLevel)
	assert.Equal(t, ErrorLevel, child.Level())
}

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	ctx := WithConnID(context.Background(), "conn-1")
	ctx = context.WithValue(ctx, ContextKeyTraceID(), "trace-abc")
	l.InfoContext(ctx, "joined", zap.String("user", "alice"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "conn-1", fields["conn_id"])
	assert.Equal(t, "trace-abc", fields["trace_id"])
	assert.Equal(t, "alice", fields["user"])
}

func TestContextFieldsPreferSpan(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	l.WarnContext(ctx, "publish failed")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.NotEqual(t, "unknown", got.String())
	}
}

func TestRotateAndSamplingDefaults(t *testing.T) {
	r := &RotateConfig{Filename: "x.log"}
	r.setDefaults()
	assert.Equal(t, 100, r.MaxSize)
	assert.Equal(t, 30, r.MaxAge)
	assert.Equal(t, 10, r.MaxBackups)

	s := &SamplingConfig{}
	s.setDefaults()
	assert.Equal(t, 100, s.Initial)
	assert.Equal(t, 100, s.Thereafter)
}
