package broadcast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvWithin[T any](t *testing.T, s *Subscription[T], d time.Duration) (T, bool) {
	t.Helper()
	type result struct {
		v  T
		ok bool
	}
	ch := make(chan result, 1)
	go func() {
		v, ok := s.Recv()
		ch <- result{v, ok}
	}()
	select {
	case r := <-ch:
		return r.v, r.ok
	case <-time.After(d):
		t.Fatalf("Recv did not return within %v", d)
		var zero T
		return zero, false
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := New[string](8)
	n, err := b.Publish("hi")
	assert.ErrorIs(t, err, ErrNoSubscribers)
	assert.Zero(t, n)
}

func TestPublishFanOut(t *testing.T) {
	b := New[string](8)
	s1, err := b.Subscribe()
	require.NoError(t, err)
	s2, err := b.Subscribe()
	require.NoError(t, err)

	n, err := b.Publish("hi")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, ok := recvWithin(t, s1, time.Second)
	assert.True(t, ok)
	assert.Equal(t, "hi", v)
	v, ok = recvWithin(t, s2, time.Second)
	assert.True(t, ok)
	assert.Equal(t, "hi", v)
}

func TestSubscriberMissesEarlierMessages(t *testing.T) {
	b := New[int](8)
	early, _ := b.Subscribe()
	_, err := b.Publish(1)
	require.NoError(t, err)

	late, _ := b.Subscribe()
	_, err = b.Publish(2)
	require.NoError(t, err)

	v, _ := recvWithin(t, early, time.Second)
	assert.Equal(t, 1, v)
	v, _ = recvWithin(t, late, time.Second)
	assert.Equal(t, 2, v)
	assert.Zero(t, late.Pending())
}

func TestSameOrderForAllSubscribers(t *testing.T) {
	b := New[int](10000)
	subs := make([]*Subscription[int], 4)
	for i := range subs {
		s, err := b.Subscribe()
		require.NoError(t, err)
		subs[i] = s
	}

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				_, _ = b.Publish(p*1000 + i)
			}
		}(p)
	}
	wg.Wait()

	var reference []int
	for i, s := range subs {
		got := make([]int, 0, 1000)
		for len(got) < 1000 {
			v, ok := s.Recv()
			require.True(t, ok)
			got = append(got, v)
		}
		if i == 0 {
			reference = got
			continue
		}
		assert.Equal(t, reference, got)
	}
}

func TestLaggingSubscriberIsEvicted(t *testing.T) {
	b := New[int](2)
	slow, _ := b.Subscribe()
	fast, _ := b.Subscribe()

	for i := 0; i < 2; i++ {
		n, err := b.Publish(i)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		_, ok := fast.Recv()
		require.True(t, ok)
	}

	// slow 队列已满，本次发布后被移除
	n, err := b.Publish(2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, b.SubscriberCount())
	assert.True(t, slow.Lagged())

	_, ok := recvWithin(t, slow, time.Second)
	assert.False(t, ok)
}

func TestPublishFailsWhenEveryQueueIsFull(t *testing.T) {
	b := New[int](1)
	s, _ := b.Subscribe()
	_, err := b.Publish(1)
	require.NoError(t, err)

	_, err = b.Publish(2)
	assert.ErrorIs(t, err, ErrFull)
	assert.True(t, s.Lagged())

	_, err = b.Publish(3)
	assert.ErrorIs(t, err, ErrNoSubscribers)
}

func TestUnsubscribeWakesRecv(t *testing.T) {
	b := New[int](4)
	s, _ := b.Subscribe()

	done := make(chan bool, 1)
	go func() {
		_, ok := s.Recv()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	s.Unsubscribe()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Recv still blocked after Unsubscribe")
	}
	assert.Zero(t, b.SubscriberCount())
	s.Unsubscribe()
}

func TestCloseDrainsThenEnds(t *testing.T) {
	b := New[string](4)
	s, _ := b.Subscribe()
	_, err := b.Publish("last")
	require.NoError(t, err)

	b.Close()
	assert.True(t, b.IsClosed())

	v, ok := recvWithin(t, s, time.Second)
	assert.True(t, ok)
	assert.Equal(t, "last", v)
	_, ok = recvWithin(t, s, time.Second)
	assert.False(t, ok)

	_, err = b.Publish("after")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = b.Subscribe()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New[int](0).Capacity())
	assert.Equal(t, 3, New[int](3).Capacity())
}
