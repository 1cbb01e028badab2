package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokmz/roomcast/pkg/broadcast"
	"github.com/tokmz/roomcast/pkg/counter"
	"github.com/tokmz/roomcast/pkg/logger"
	"github.com/tokmz/roomcast/pkg/tracing"
	"github.com/tokmz/roomcast/pkg/ws"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roomcast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadAppConfig(newConfigLoader(""))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, broadcast.DefaultCapacity, cfg.Chat.ChannelCapacity)
	assert.Equal(t, 128, cfg.Chat.MaxMessageLength)
	assert.False(t, cfg.Chat.LinkLoops)
	assert.False(t, cfg.WS.CheckOrigin)
	assert.Equal(t, "memory", cfg.Counter.Backend)
	assert.Equal(t, counter.DefaultKey, cfg.Counter.Key)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  mode: debug
  route_prefix: /api
log:
  level: debug
  format: console
chat:
  max_message_length: 64
  link_loops: true
ws:
  check_origin: true
  allowed_origins:
    - https://chat.example.com
counter:
  backend: redis
  key: test:views
  redis:
    addr: 10.0.0.1:6379
    db: 2
tracing:
  enabled: true
  exporter: otlp-grpc
  endpoint: collector:4317
  insecure: true
  sampling_rate: 0.25
`)

	cfg, err := loadAppConfig(newConfigLoader(path))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/api", cfg.Server.RoutePrefix)
	assert.Equal(t, 64, cfg.Chat.MaxMessageLength)
	assert.True(t, cfg.Chat.LinkLoops)
	assert.Equal(t, []string{"https://chat.example.com"}, cfg.WS.AllowedOrigins)
	// 文件未设置的项保留默认值
	assert.Equal(t, broadcast.DefaultCapacity, cfg.Chat.ChannelCapacity)

	log, err := logger.NewWithOptions(cfg.loggerOptions()...)
	require.NoError(t, err)
	assert.Equal(t, logger.DebugLevel, log.Level())

	cc := cfg.counterConfig()
	assert.Equal(t, counter.DriverRedis, cc.Driver)
	assert.Equal(t, "test:views", cc.Key)
	require.NotNil(t, cc.Redis)
	assert.Equal(t, "10.0.0.1:6379", cc.Redis.Addr)
	assert.Equal(t, 2, cc.Redis.DB)
	assert.NoError(t, cc.Validate())

	tc := cfg.tracingConfig("test")
	assert.Equal(t, tracing.ExporterOTLPGRPC, tc.Exporter)
	assert.Equal(t, "collector:4317", tc.Endpoint)
	assert.True(t, tc.Insecure)
	assert.InDelta(t, 0.25, tc.SamplingRate, 1e-9)
	assert.NoError(t, tc.Validate())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "chat:\n  max_message_length: 64\n")
	t.Setenv("ROOMCAST_CHAT_MAX_MESSAGE_LENGTH", "32")
	t.Setenv("ROOMCAST_SERVER_ADDR", ":7070")

	cfg, err := loadAppConfig(newConfigLoader(path))
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Chat.MaxMessageLength)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestValidationRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown backend", content: "counter:\n  backend: mongo\n"},
		{name: "unknown exporter", content: "tracing:\n  exporter: zipkin\n"},
		{name: "zero message length", content: "chat:\n  max_message_length: 0\n"},
		{name: "sampling rate above one", content: "tracing:\n  sampling_rate: 2\n"},
		{name: "unknown mode", content: "server:\n  mode: staging\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadAppConfig(newConfigLoader(writeConfig(t, tt.content)))
			assert.Error(t, err)
		})
	}
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := loadAppConfig(newConfigLoader(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestWSOptions(t *testing.T) {
	cfg, err := loadAppConfig(newConfigLoader(""))
	require.NoError(t, err)

	wc := ws.DefaultConfig()
	for _, opt := range cfg.wsOptions(&ws.CounterMetrics{}) {
		opt(wc)
	}
	require.NoError(t, wc.Validate())
	assert.NotNil(t, wc.CheckOrigin)
	assert.Equal(t, 1024, wc.ReadBufferSize)
	assert.Zero(t, wc.WriteTimeout)
}
