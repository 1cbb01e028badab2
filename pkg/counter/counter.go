package counter

import (
	"context"
	"fmt"
)

// Counter 已投递消息计数器
//
// 统计的是逐个订阅者的投递次数：一条消息写给 K 个连接，计数增加 K。
// 实现必须是并发安全的。
type Counter interface {
	// Incr 计数加一，返回加一后的值
	Incr(ctx context.Context) (uint64, error)
	// Load 读取当前值
	Load(ctx context.Context) (uint64, error)
	// Reset 清零
	Reset(ctx context.Context) error
	// Close 释放底层连接
	Close() error
}

// New 按配置创建计数器
func New(cfg *Config) (Counter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		c   Counter
		err error
	)
	switch cfg.Driver {
	case DriverMemory:
		c = NewMemory()
	case DriverRedis:
		c, err = newRedisCounter(cfg)
	default:
		return nil, ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
	if err != nil {
		return nil, err
	}

	if cfg.Tracing {
		c = NewTracing(c)
	}
	return c, nil
}

// NewWithOptions 使用 Options 模式创建计数器
func NewWithOptions(opts ...Option) (Counter, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return New(cfg)
}
