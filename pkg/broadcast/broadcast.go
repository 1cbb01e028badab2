package broadcast

import (
	"errors"
	"sync"
)

// 错误定义
var (
	ErrClosed        = errors.New("broadcast: channel closed")
	ErrNoSubscribers = errors.New("broadcast: no live subscribers")
	ErrFull          = errors.New("broadcast: every subscriber queue is full")
)

// DefaultCapacity 默认单订阅者积压上限
const DefaultCapacity = 100000

// Broadcast 单发布流、多订阅者的广播通道
//
// 一次 Publish 会按相同顺序投递给发布时刻的全部订阅者。
// 每个订阅者拥有独立队列，积压达到 capacity 时该订阅者被判定为滞后并被移除，
// 发布方永远不会因慢订阅者而阻塞。
type Broadcast[T any] struct {
	mu       sync.Mutex
	subs     map[uint64]*Subscription[T]
	nextID   uint64
	capacity int
	closed   bool
}

// New 创建广播通道，capacity <= 0 时使用 DefaultCapacity
func New[T any](capacity int) *Broadcast[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Broadcast[T]{
		subs:     make(map[uint64]*Subscription[T]),
		capacity: capacity,
	}
}

// Subscribe 注册订阅者，只能收到订阅之后发布的消息
func (b *Broadcast[T]) Subscribe() (*Subscription[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	b.nextID++
	s := &Subscription[T]{
		b:      b,
		id:     b.nextID,
		notify: make(chan struct{}, 1),
	}
	b.subs[s.id] = s
	return s, nil
}

// Publish 发布消息，返回成功入队的订阅者数量
//
// 通道已关闭返回 ErrClosed；没有订阅者返回 ErrNoSubscribers；
// 所有订阅者都因队列已满被移除时返回 ErrFull。
func (b *Broadcast[T]) Publish(v T) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if len(b.subs) == 0 {
		return 0, ErrNoSubscribers
	}

	delivered := 0
	for id, s := range b.subs {
		if s.push(v, b.capacity) {
			delivered++
			continue
		}
		// 队列已满：移除滞后的订阅者
		delete(b.subs, id)
		s.shut(true, false)
	}

	if delivered == 0 {
		return 0, ErrFull
	}
	return delivered, nil
}

// SubscriberCount 当前订阅者数量
func (b *Broadcast[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Capacity 单订阅者积压上限
func (b *Broadcast[T]) Capacity() int {
	return b.capacity
}

// Close 关闭通道，订阅者读完已入队的消息后结束
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		s.shut(false, false)
	}
}

// IsClosed 是否已关闭
func (b *Broadcast[T]) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// unsubscribe 移除订阅者
func (b *Broadcast[T]) unsubscribe(s *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.subs[s.id]; ok && cur == s {
		delete(b.subs, s.id)
	}
	s.shut(false, true)
}
