package ws

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Config WebSocket 配置
type Config struct {
	// 连接配置
	ReadBufferSize   int           // 读缓冲区大小
	WriteBufferSize  int           // 写缓冲区大小
	HandshakeTimeout time.Duration // 握手超时时间
	MaxMessageSize   int64         // 单帧最大字节数（0 表示不限制）
	WriteTimeout     time.Duration // 单次写超时（0 表示不设置）

	EnableCompression bool                     // 是否启用压缩
	CheckOrigin       func(*http.Request) bool // Origin 检查函数
	AllowedOrigins    []string                 // 允许的 Origin 白名单

	// 监控
	Metrics Metrics
}

// DefaultConfig 默认配置
//
// 连接建立后不设置任何读写超时，连接只会因对端关闭或写失败而结束。
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: ReadBufferSize must be positive, got %d", ErrInvalidConfig, c.ReadBufferSize)
	}
	if c.WriteBufferSize <= 0 {
		return fmt.Errorf("%w: WriteBufferSize must be positive, got %d", ErrInvalidConfig, c.WriteBufferSize)
	}
	if c.HandshakeTimeout < 0 {
		return fmt.Errorf("%w: HandshakeTimeout must not be negative, got %v", ErrInvalidConfig, c.HandshakeTimeout)
	}
	if c.MaxMessageSize < 0 {
		return fmt.Errorf("%w: MaxMessageSize must not be negative, got %d", ErrInvalidConfig, c.MaxMessageSize)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("%w: WriteTimeout must not be negative, got %v", ErrInvalidConfig, c.WriteTimeout)
	}
	return nil
}

// Option 配置选项
type Option func(*Config)

// WithBufferSizes 设置读写缓冲区大小
func WithBufferSizes(read, write int) Option {
	return func(c *Config) {
		c.ReadBufferSize = read
		c.WriteBufferSize = write
	}
}

// WithMessageSizeLimit 设置消息大小限制
func WithMessageSizeLimit(size int64) Option {
	return func(c *Config) {
		c.MaxMessageSize = size
	}
}

// WithWriteTimeout 设置写超时
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = d
	}
}

// WithCheckOrigin 设置 Origin 检查函数
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(c *Config) {
		c.CheckOrigin = fn
	}
}

// WithCheckOriginWhitelist 设置 Origin 白名单
// 示例：WithCheckOriginWhitelist([]string{"https://example.com", "https://app.example.com"})
func WithCheckOriginWhitelist(allowedOrigins []string) Option {
	return func(c *Config) {
		c.AllowedOrigins = allowedOrigins
		c.CheckOrigin = createWhitelistChecker(allowedOrigins)
	}
}

// WithAllowAllOrigins 允许所有来源
func WithAllowAllOrigins() Option {
	return func(c *Config) {
		c.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

// WithEnableCompression 启用压缩
func WithEnableCompression(enable bool) Option {
	return func(c *Config) {
		c.EnableCompression = enable
	}
}

// WithMetrics 设置监控
func WithMetrics(metrics Metrics) Option {
	return func(c *Config) {
		c.Metrics = metrics
	}
}

// defaultCheckOrigin 默认 Origin 检查（同源策略）
// 没有 Origin 头的请求来自非浏览器客户端，直接放行
func defaultCheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// createWhitelistChecker 创建白名单检查器
func createWhitelistChecker(allowedOrigins []string) func(*http.Request) bool {
	whitelist := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		whitelist[origin] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// 白名单模式下拒绝空 Origin
			return false
		}
		return whitelist[origin]
	}
}

// Upgrader WebSocket 升级器
type Upgrader struct {
	upgrader     websocket.Upgrader
	readLimit    int64
	writeTimeout time.Duration
	metrics      Metrics
}

// NewUpgrader 创建升级器
func NewUpgrader(config *Config) (*Upgrader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		if len(config.AllowedOrigins) > 0 {
			checkOrigin = createWhitelistChecker(config.AllowedOrigins)
		} else {
			checkOrigin = defaultCheckOrigin
		}
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &NoopMetrics{}
	}

	return &Upgrader{
		upgrader: websocket.Upgrader{
			ReadBufferSize:    config.ReadBufferSize,
			WriteBufferSize:   config.WriteBufferSize,
			HandshakeTimeout:  config.HandshakeTimeout,
			CheckOrigin:       checkOrigin,
			EnableCompression: config.EnableCompression,
		},
		readLimit:    config.MaxMessageSize,
		writeTimeout: config.WriteTimeout,
		metrics:      metrics,
	}, nil
}

// NewUpgraderWithOptions 使用 Options 模式创建升级器
func NewUpgraderWithOptions(opts ...Option) (*Upgrader, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return NewUpgrader(config)
}

// Upgrade 升级 HTTP 连接为 WebSocket
// 失败时 gorilla 已经写回了 HTTP 错误响应
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	c, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		u.metrics.IncrementUpgradeFailures()
		return nil, err
	}

	// http.Server 的 ReadTimeout/WriteTimeout 会残留在被劫持的连接上
	_ = c.NetConn().SetDeadline(time.Time{})
	if u.readLimit > 0 {
		c.SetReadLimit(u.readLimit)
	}

	u.metrics.IncrementConnections()
	return newConn(c, u.writeTimeout, u.metrics), nil
}
