package counter

import (
	"context"
	"sync/atomic"
)

// memoryCounter 进程内计数
type memoryCounter struct {
	n atomic.Uint64
}

// NewMemory 创建进程内计数器
func NewMemory() Counter {
	return &memoryCounter{}
}

func (m *memoryCounter) Incr(context.Context) (uint64, error) {
	return m.n.Add(1), nil
}

func (m *memoryCounter) Load(context.Context) (uint64, error) {
	return m.n.Load(), nil
}

func (m *memoryCounter) Reset(context.Context) error {
	m.n.Store(0)
	return nil
}

func (m *memoryCounter) Close() error { return nil }
