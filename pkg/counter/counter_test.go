package counter

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tokmz/roomcast/pkg/errors"
)

func TestMemoryCounter(t *testing.T) {
	ctx := context.Background()
	c, err := New(nil)
	require.NoError(t, err)
	defer c.Close()

	n, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = c.Incr(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	require.NoError(t, c.Reset(ctx))
	n, _ = c.Load(ctx)
	assert.Zero(t, n)
}

func TestMemoryCounterConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				_, _ = c.Incr(ctx)
			}
		}()
	}
	wg.Wait()

	n, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), n)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "memory", cfg: DefaultConfig()},
		{name: "unknown driver", cfg: &Config{Driver: "etcd"}, wantErr: true},
		{name: "redis without config", cfg: &Config{Driver: DriverRedis}, wantErr: true},
		{name: "redis standalone", cfg: &Config{Driver: DriverRedis, Redis: DefaultRedisConfig()}},
		{name: "cluster without addrs", cfg: &Config{Driver: DriverRedis, Redis: &RedisConfig{Mode: RedisCluster}}, wantErr: true},
		{name: "sentinel without master", cfg: &Config{Driver: DriverRedis, Redis: &RedisConfig{Mode: RedisSentinel, Addrs: []string{"a:26379"}}}, wantErr: true},
		{name: "bad mode", cfg: &Config{Driver: DriverRedis, Redis: &RedisConfig{Mode: "ring", Addr: "x"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTracingRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	c := &tracedCounter{Counter: NewMemory(), tracer: tp.Tracer(tracerName)}
	ctx := context.Background()

	_, err := c.Incr(ctx)
	require.NoError(t, err)
	_, err = c.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Reset(ctx))

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"counter.Incr", "counter.Load", "counter.Reset"}, names)
}

// 需要设置 ROOMCAST_TEST_REDIS_ADDR 才会运行
func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("ROOMCAST_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ROOMCAST_TEST_REDIS_ADDR not set")
	}

	redisCfg := DefaultRedisConfig()
	redisCfg.Addr = addr
	c, err := NewWithOptions(WithRedis(redisCfg), WithKey("roomcast:test:views"))
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	for i := 1; i <= 3; i++ {
		n, err := c.Incr(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), n)
	}

	n, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	require.NoError(t, c.Reset(ctx))
	n, _ = c.Load(ctx)
	assert.Zero(t, n)
}
