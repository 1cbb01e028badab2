package tracing

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrInvalidConfig 配置错误
var ErrInvalidConfig = errors.New("tracing: invalid config")

// ExporterType 导出器类型
type ExporterType string

const (
	ExporterStdout   ExporterType = "stdout"
	ExporterOTLP     ExporterType = "otlp"      // OTLP over HTTP
	ExporterOTLPGRPC ExporterType = "otlp-grpc" // OTLP over gRPC
	ExporterNoop     ExporterType = "noop"
)

// Config 链路追踪配置
type Config struct {
	// 服务名称（必填）
	ServiceName string

	// 服务版本
	ServiceVersion string

	// 环境（dev/staging/prod）
	Environment string

	// 是否启用，关闭时等同于 noop 导出器
	Enabled bool

	// 导出器类型
	Exporter ExporterType

	// 导出器端点（host:port），为空时读取 OTEL_EXPORTER_OTLP_ENDPOINT
	Endpoint string

	// 导出器请求头（用于认证）
	Headers map[string]string

	// 是否使用非 TLS 连接
	Insecure bool

	// stdout 导出器的输出位置，默认 os.Stdout
	Writer io.Writer

	// 采样类型（always/never/ratio/parent_based）与采样率（0.0-1.0）
	SamplingType string
	SamplingRate float64

	// 批处理配置
	BatchTimeout       time.Duration // 批量导出超时（默认 5s）
	MaxExportBatchSize int           // 最大批量大小（默认 512）
	MaxQueueSize       int           // 最大队列大小（默认 2048）
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		ServiceName:        "roomcast",
		ServiceVersion:     "0.3.0",
		Environment:        "development",
		Enabled:            false,
		Exporter:           ExporterStdout,
		SamplingType:       "parent_based",
		SamplingRate:       1.0,
		BatchTimeout:       5 * time.Second,
		MaxExportBatchSize: 512,
		MaxQueueSize:       2048,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("%w: service name is required", ErrInvalidConfig)
	}
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("%w: sampling rate must be between 0.0 and 1.0", ErrInvalidConfig)
	}

	switch c.Exporter {
	case ExporterStdout, ExporterOTLP, ExporterOTLPGRPC, ExporterNoop:
	default:
		return fmt.Errorf("%w: invalid exporter type %q", ErrInvalidConfig, c.Exporter)
	}

	switch c.SamplingType {
	case "", "always", "never", "ratio", "parent_based":
	default:
		return fmt.Errorf("%w: invalid sampling type %q", ErrInvalidConfig, c.SamplingType)
	}
	return nil
}

// setDefaults 补齐批处理参数
func (c *Config) setDefaults() {
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 5 * time.Second
	}
	if c.MaxExportBatchSize <= 0 {
		c.MaxExportBatchSize = 512
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 2048
	}
}
