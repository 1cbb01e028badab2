package chat

import (
	"fmt"

	"github.com/tokmz/roomcast/pkg/broadcast"
)

// DefaultMaxMessageLength 单条消息最大长度（按 UTF-8 字节计）
const DefaultMaxMessageLength = 128

// Config 聊天配置
type Config struct {
	// ChannelCapacity 每个房间广播通道的单订阅者积压上限
	ChannelCapacity int

	// MaxMessageLength 超过该字节数的消息直接丢弃
	MaxMessageLength int

	// LinkLoops 接收循环结束时同时结束发送循环
	// 关闭时发送循环要等到下一次发布写失败才退出，成员也要到那时才离开房间
	LinkLoops bool
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		ChannelCapacity:  broadcast.DefaultCapacity,
		MaxMessageLength: DefaultMaxMessageLength,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.ChannelCapacity <= 0 {
		return fmt.Errorf("chat: ChannelCapacity must be positive, got %d", c.ChannelCapacity)
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("chat: MaxMessageLength must be positive, got %d", c.MaxMessageLength)
	}
	return nil
}

// Option 配置选项
type Option func(*Config)

// WithChannelCapacity 设置广播通道容量
func WithChannelCapacity(n int) Option {
	return func(c *Config) {
		c.ChannelCapacity = n
	}
}

// WithMaxMessageLength 设置消息长度上限
func WithMaxMessageLength(n int) Option {
	return func(c *Config) {
		c.MaxMessageLength = n
	}
}

// WithLinkLoops 设置是否联动结束两个循环
func WithLinkLoops(enabled bool) Option {
	return func(c *Config) {
		c.LinkLoops = enabled
	}
}
