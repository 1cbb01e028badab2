package ws

import "sync/atomic"

// Metrics 监控接口
type Metrics interface {
	// 连接指标
	IncrementConnections()
	DecrementConnections()
	IncrementUpgradeFailures()

	// 错误指标
	IncrementReadErrors()
	IncrementWriteErrors()
}

// NoopMetrics 空实现（默认）
type NoopMetrics struct{}

func (m *NoopMetrics) IncrementConnections()     {}
func (m *NoopMetrics) DecrementConnections()     {}
func (m *NoopMetrics) IncrementUpgradeFailures() {}
func (m *NoopMetrics) IncrementReadErrors()      {}
func (m *NoopMetrics) IncrementWriteErrors()     {}

// CounterMetrics 基于原子计数的进程内实现
type CounterMetrics struct {
	active          atomic.Int64
	total           atomic.Uint64
	upgradeFailures atomic.Uint64
	readErrors      atomic.Uint64
	writeErrors     atomic.Uint64
}

// MetricsSnapshot 某一时刻的指标
type MetricsSnapshot struct {
	Active          int64  `json:"active"`
	Total           uint64 `json:"total"`
	UpgradeFailures uint64 `json:"upgrade_failures"`
	ReadErrors      uint64 `json:"read_errors"`
	WriteErrors     uint64 `json:"write_errors"`
}

func (m *CounterMetrics) IncrementConnections() {
	m.active.Add(1)
	m.total.Add(1)
}

func (m *CounterMetrics) DecrementConnections()     { m.active.Add(-1) }
func (m *CounterMetrics) IncrementUpgradeFailures() { m.upgradeFailures.Add(1) }
func (m *CounterMetrics) IncrementReadErrors()      { m.readErrors.Add(1) }
func (m *CounterMetrics) IncrementWriteErrors()     { m.writeErrors.Add(1) }

// Snapshot 读取当前指标
func (m *CounterMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Active:          m.active.Load(),
		Total:           m.total.Load(),
		UpgradeFailures: m.upgradeFailures.Load(),
		ReadErrors:      m.readErrors.Load(),
		WriteErrors:     m.writeErrors.Load(),
	}
}
