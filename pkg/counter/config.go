package counter

import (
	"fmt"
	"time"
)

// DriverType 驱动类型
type DriverType string

const (
	DriverRedis  DriverType = "redis"
	DriverMemory DriverType = "memory"
)

// RedisMode Redis 模式
type RedisMode string

const (
	RedisStandalone RedisMode = "standalone"
	RedisCluster    RedisMode = "cluster"
	RedisSentinel   RedisMode = "sentinel"
)

// DefaultKey Redis 中保存计数的键
const DefaultKey = "roomcast:views"

// Config 计数器配置
type Config struct {
	Driver  DriverType   // memory 或 redis
	Redis   *RedisConfig // Driver 为 redis 时必填
	Key     string       // Redis 键名
	Tracing bool         // 是否为每次操作创建 Span
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr         string        // 地址（单机）
	Addrs        []string      // 地址列表（集群/哨兵）
	Mode         RedisMode     // standalone, cluster, sentinel
	Username     string        // 用户名（Redis 6.0+）
	Password     string        // 密码
	DB           int           // 数据库编号
	PoolSize     int           // 连接池大小
	MinIdleConns int           // 最小空闲连接
	MaxRetries   int           // 最大重试次数
	DialTimeout  time.Duration // 连接超时
	ReadTimeout  time.Duration // 读超时
	WriteTimeout time.Duration // 写超时

	// 哨兵模式配置
	MasterName string
}

// DefaultConfig 返回默认配置（进程内计数）
func DefaultConfig() *Config {
	return &Config{
		Driver: DriverMemory,
		Key:    DefaultKey,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		Mode:         RedisStandalone,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Option 配置选项
type Option func(*Config)

// WithMemory 使用进程内计数
func WithMemory() Option {
	return func(c *Config) {
		c.Driver = DriverMemory
	}
}

// WithRedis 使用 Redis 计数
func WithRedis(cfg *RedisConfig) Option {
	return func(c *Config) {
		c.Driver = DriverRedis
		c.Redis = cfg
	}
}

// WithKey 设置 Redis 键名
func WithKey(key string) Option {
	return func(c *Config) {
		c.Key = key
	}
}

// WithTracing 开启链路追踪
func WithTracing(enabled bool) Option {
	return func(c *Config) {
		c.Tracing = enabled
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverRedis:
	default:
		return ErrInvalidConfig.WithError(fmt.Errorf("invalid driver %q", c.Driver))
	}

	if c.Redis == nil {
		return ErrInvalidConfig.WithError(fmt.Errorf("redis config is required"))
	}
	if c.Key == "" {
		c.Key = DefaultKey
	}

	switch c.Redis.Mode {
	case RedisStandalone, "":
		if c.Redis.Addr == "" {
			return ErrInvalidConfig.WithError(fmt.Errorf("redis addr is required for standalone mode"))
		}
	case RedisCluster:
		if len(c.Redis.Addrs) == 0 {
			return ErrInvalidConfig.WithError(fmt.Errorf("redis cluster requires addrs"))
		}
	case RedisSentinel:
		if len(c.Redis.Addrs) == 0 {
			return ErrInvalidConfig.WithError(fmt.Errorf("redis sentinel requires at least 1 sentinel node"))
		}
		if c.Redis.MasterName == "" {
			return ErrInvalidConfig.WithError(fmt.Errorf("redis sentinel requires master name"))
		}
	default:
		return ErrInvalidConfig.WithError(fmt.Errorf("invalid redis mode %q", c.Redis.Mode))
	}
	return nil
}
