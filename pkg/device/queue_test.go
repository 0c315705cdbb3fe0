package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueTryGetEmpty(t *testing.T) {
	q := NewQueue[int](4)
	_, ok := q.TryGet()
	assert.False(t, ok)
}

func TestQueuePutTryGetFIFO(t *testing.T) {
	q := NewQueue[int](4)
	q.Put(1)
	q.Put(2)
	q.Put(3)

	v, ok := q.TryGet()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.TryGet()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestQueueGetTimeout(t *testing.T) {
	q := NewQueue[int](1)
	start := time.Now()
	_, ok := q.Get(50 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestQueueGetUnblocksOnPut(t *testing.T) {
	q := NewQueue[int](1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Put(42)
	}()
	v, ok := q.Get(time.Second)
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue[int](4)
	q.Put(1)
	q.Put(2)
	q.Drain()
	_, ok := q.TryGet()
	assert.False(t, ok)
}

func TestQueuePutDoesNotBlockWhenFull(t *testing.T) {
	q := NewQueue[int](1)
	q.Put(1)
	done := make(chan struct{})
	go func() {
		q.Put(2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Put blocked on a full queue")
	}
}
