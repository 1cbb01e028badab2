package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tokmz/roomcast/pkg/broadcast"
	"github.com/tokmz/roomcast/pkg/chat"
	"github.com/tokmz/roomcast/pkg/config"
	"github.com/tokmz/roomcast/pkg/counter"
	"github.com/tokmz/roomcast/pkg/logger"
	"github.com/tokmz/roomcast/pkg/tracing"
	"github.com/tokmz/roomcast/pkg/ws"
)

// envPrefix 环境变量前缀，server.addr 对应 ROOMCAST_SERVER_ADDR
const envPrefix = "ROOMCAST"

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	WS      WSConfig      `mapstructure:"ws" yaml:"ws"`
	Counter CounterConfig `mapstructure:"counter" yaml:"counter"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" yaml:"mode" validate:"oneof=debug release test"`
	RoutePrefix     string        `mapstructure:"route_prefix" yaml:"route_prefix"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string        `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn warning error fatal"`
	Format string        `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
	File   string        `mapstructure:"file" yaml:"file"`
	Caller bool          `mapstructure:"caller" yaml:"caller"`
	Rotate *RotateConfig `mapstructure:"rotate" yaml:"rotate,omitempty"`
}

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Filename   string `mapstructure:"filename" yaml:"filename" validate:"required"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ChatConfig 聊天配置
type ChatConfig struct {
	ChannelCapacity  int  `mapstructure:"channel_capacity" yaml:"channel_capacity" validate:"gt=0"`
	MaxMessageLength int  `mapstructure:"max_message_length" yaml:"max_message_length" validate:"gt=0"`
	LinkLoops        bool `mapstructure:"link_loops" yaml:"link_loops"`
}

// WSConfig WebSocket 配置
type WSConfig struct {
	ReadBufferSize    int           `mapstructure:"read_buffer_size" yaml:"read_buffer_size" validate:"gt=0"`
	WriteBufferSize   int           `mapstructure:"write_buffer_size" yaml:"write_buffer_size" validate:"gt=0"`
	MaxMessageSize    int64         `mapstructure:"max_message_size" yaml:"max_message_size" validate:"gte=0"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	CheckOrigin       bool          `mapstructure:"check_origin" yaml:"check_origin"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression" yaml:"enable_compression"`
}

// CounterConfig 投递计数配置
type CounterConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend" validate:"oneof=memory redis"`
	Key     string      `mapstructure:"key" yaml:"key"`
	Tracing bool        `mapstructure:"tracing" yaml:"tracing"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Mode       string   `mapstructure:"mode" yaml:"mode" validate:"omitempty,oneof=standalone cluster sentinel"`
	Addr       string   `mapstructure:"addr" yaml:"addr"`
	Addrs      []string `mapstructure:"addrs" yaml:"addrs"`
	MasterName string   `mapstructure:"master_name" yaml:"master_name"`
	Username   string   `mapstructure:"username" yaml:"username"`
	Password   string   `mapstructure:"password" yaml:"-"`
	DB         int      `mapstructure:"db" yaml:"db" validate:"gte=0"`
	PoolSize   int      `mapstructure:"pool_size" yaml:"pool_size" validate:"gte=0"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled      bool              `mapstructure:"enabled" yaml:"enabled"`
	Exporter     string            `mapstructure:"exporter" yaml:"exporter" validate:"oneof=stdout otlp otlp-grpc noop"`
	Endpoint     string            `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure     bool              `mapstructure:"insecure" yaml:"insecure"`
	Headers      map[string]string `mapstructure:"headers" yaml:"-"`
	SamplingType string            `mapstructure:"sampling_type" yaml:"sampling_type" validate:"omitempty,oneof=always never ratio parent_based"`
	SamplingRate float64           `mapstructure:"sampling_rate" yaml:"sampling_rate" validate:"gte=0,lte=1"`
	Environment  string            `mapstructure:"environment" yaml:"environment"`
}

// defaults 默认配置，key 与 YAML 路径一致
func defaults() map[string]any {
	return map[string]any{
		"server.addr":             ":8080",
		"server.mode":             "release",
		"server.route_prefix":     "",
		"server.read_timeout":     "10s",
		"server.write_timeout":    "0s",
		"server.idle_timeout":     "60s",
		"server.shutdown_timeout": "10s",

		"log.level":  "info",
		"log.format": "json",

		"chat.channel_capacity":   broadcast.DefaultCapacity,
		"chat.max_message_length": chat.DefaultMaxMessageLength,
		"chat.link_loops":         false,

		"ws.read_buffer_size":   1024,
		"ws.write_buffer_size":  1024,
		"ws.max_message_size":   0,
		"ws.write_timeout":      "0s",
		"ws.check_origin":       false,
		"ws.enable_compression": false,

		"counter.backend":    string(counter.DriverMemory),
		"counter.key":        counter.DefaultKey,
		"counter.redis.mode": string(counter.RedisStandalone),
		"counter.redis.addr": "localhost:6379",

		"tracing.enabled":       false,
		"tracing.exporter":      string(tracing.ExporterStdout),
		"tracing.sampling_type": "parent_based",
		"tracing.sampling_rate": 1.0,
		"tracing.environment":   "development",
	}
}

// newConfigLoader 创建配置加载器
// path 为空时在 ./configs 与当前目录查找 roomcast.yaml，找不到则只用默认值和环境变量
func newConfigLoader(path string, opts ...config.Option) *config.Config {
	base := []config.Option{
		config.WithDefaults(defaults()),
		config.WithEnvPrefix(envPrefix),
		config.WithEnvKeyReplacer(strings.NewReplacer(".", "_")),
	}
	if path != "" {
		base = append(base, config.WithConfigFile(path))
	} else {
		base = append(base,
			config.WithConfigName("roomcast"),
			config.WithConfigType("yaml"),
			config.WithConfigPaths("./configs", "."),
			config.WithOptional(true),
		)
	}
	return config.New(append(base, opts...)...)
}

// loadAppConfig 加载并校验应用配置
func loadAppConfig(c *config.Config) (*AppConfig, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := c.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// loggerOptions 转换为 logger 选项
func (c *AppConfig) loggerOptions() []logger.Option {
	opts := []logger.Option{
		logger.WithLevelName(c.Log.Level),
		logger.WithFormat(logger.Format(c.Log.Format)),
		logger.WithFileOutput(c.Log.File),
		logger.WithCaller(c.Log.Caller),
		logger.WithStacktrace(true),
	}
	if r := c.Log.Rotate; r != nil {
		opts = append(opts, logger.WithRotateOutput(&logger.RotateConfig{
			Filename:   r.Filename,
			MaxSize:    r.MaxSize,
			MaxAge:     r.MaxAge,
			MaxBackups: r.MaxBackups,
			Compress:   r.Compress,
		}))
	}
	return opts
}

// chatConfig 转换为 chat.Config
func (c *AppConfig) chatConfig() *chat.Config {
	return &chat.Config{
		ChannelCapacity:  c.Chat.ChannelCapacity,
		MaxMessageLength: c.Chat.MaxMessageLength,
		LinkLoops:        c.Chat.LinkLoops,
	}
}

// wsOptions 转换为升级器选项
// check_origin 关闭时允许任意来源；开启且配置了白名单时按白名单校验，否则同源校验
func (c *AppConfig) wsOptions(metrics ws.Metrics) []ws.Option {
	opts := []ws.Option{
		ws.WithBufferSizes(c.WS.ReadBufferSize, c.WS.WriteBufferSize),
		ws.WithMessageSizeLimit(c.WS.MaxMessageSize),
		ws.WithWriteTimeout(c.WS.WriteTimeout),
		ws.WithEnableCompression(c.WS.EnableCompression),
		ws.WithMetrics(metrics),
	}
	switch {
	case !c.WS.CheckOrigin:
		opts = append(opts, ws.WithAllowAllOrigins())
	case len(c.WS.AllowedOrigins) > 0:
		opts = append(opts, ws.WithCheckOriginWhitelist(c.WS.AllowedOrigins))
	}
	return opts
}

// counterConfig 转换为 counter.Config
func (c *AppConfig) counterConfig() *counter.Config {
	cc := &counter.Config{
		Driver:  counter.DriverType(c.Counter.Backend),
		Key:     c.Counter.Key,
		Tracing: c.Counter.Tracing && c.Tracing.Enabled,
	}
	if cc.Driver == counter.DriverRedis {
		rc := counter.DefaultRedisConfig()
		rc.Mode = counter.RedisMode(c.Counter.Redis.Mode)
		rc.Addr = c.Counter.Redis.Addr
		rc.Addrs = c.Counter.Redis.Addrs
		rc.MasterName = c.Counter.Redis.MasterName
		rc.Username = c.Counter.Redis.Username
		rc.Password = c.Counter.Redis.Password
		rc.DB = c.Counter.Redis.DB
		if c.Counter.Redis.PoolSize > 0 {
			rc.PoolSize = c.Counter.Redis.PoolSize
		}
		cc.Redis = rc
	}
	return cc
}

// tracingConfig 转换为 tracing.Config
func (c *AppConfig) tracingConfig(version string) *tracing.Config {
	tc := tracing.DefaultConfig()
	tc.ServiceVersion = version
	tc.Enabled = c.Tracing.Enabled
	tc.Exporter = tracing.ExporterType(c.Tracing.Exporter)
	tc.Endpoint = c.Tracing.Endpoint
	tc.Insecure = c.Tracing.Insecure
	tc.Headers = c.Tracing.Headers
	tc.SamplingType = c.Tracing.SamplingType
	tc.SamplingRate = c.Tracing.SamplingRate
	tc.Environment = c.Tracing.Environment
	return tc
}
