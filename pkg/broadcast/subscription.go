package broadcast

import "sync"

// Subscription 广播订阅
type Subscription[T any] struct {
	b  *Broadcast[T]
	id uint64

	mu     sync.Mutex
	queue  []T
	closed bool // 不再接收新消息
	lagged bool // 因积压被移除

	notify chan struct{}
}

// push 入队，队列已满返回 false
func (s *Subscription[T]) push(v T, capacity int) bool {
	s.mu.Lock()
	if s.closed || len(s.queue) >= capacity {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	s.wake()
	return true
}

// shut 停止接收；lagged 或 discard 时丢弃未读消息
func (s *Subscription[T]) shut(lagged, discard bool) {
	s.mu.Lock()
	s.closed = true
	if lagged {
		s.lagged = true
	}
	if lagged || discard {
		s.queue = nil
	}
	s.mu.Unlock()

	s.wake()
}

func (s *Subscription[T]) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Recv 阻塞直到收到下一条消息
// 订阅被关闭且队列已空时返回 false
func (s *Subscription[T]) Recv() (T, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			v := s.queue[0]
			var zero T
			s.queue[0] = zero
			s.queue = s.queue[1:]
			if len(s.queue) == 0 {
				s.queue = nil
			}
			s.mu.Unlock()
			return v, true
		}
		if s.closed {
			s.mu.Unlock()
			var zero T
			return zero, false
		}
		s.mu.Unlock()

		<-s.notify
	}
}

// Pending 未读消息数量
func (s *Subscription[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Lagged 是否因积压被移除
func (s *Subscription[T]) Lagged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lagged
}

// Unsubscribe 取消订阅并丢弃未读消息，阻塞中的 Recv 会返回 false
func (s *Subscription[T]) Unsubscribe() {
	s.b.unsubscribe(s)
}
