package queue

import (
	"context"
	"sync"

	"github.com/saturn-sh/saturn/pkg/topic"
	"github.com/saturn-sh/saturn/pkg/types"
)

// MemQueue is an in-memory Queue backed by a buffered channel of
// PipelineMessages, used by tests and by in-process wiring that does
// not need a real inventory source. It mirrors the teacher's
// pkg/events.Broker channel idiom (buffered, closed once; Push blocks
// while the buffer is full) rather than introducing a new concurrency primitive.
type MemQueue struct {
	ParkCounter

	name   string
	output map[string][]topic.Topic

	mu     sync.Mutex
	closed bool
	ch     chan types.PipelineMessage
}

// NewMemQueue creates a MemQueue with the given name, output routing
// table and channel capacity.
func NewMemQueue(name string, output map[string][]topic.Topic, capacity int) *MemQueue {
	return &MemQueue{
		name:   name,
		output: output,
		ch:     make(chan types.PipelineMessage, capacity),
	}
}

// Name implements Queue.
func (q *MemQueue) Name() string { return q.name }

// Push enqueues a message, without blocking, unless the channel is at
// capacity. Returns false if the queue is closed.
func (q *MemQueue) Push(msg types.PipelineMessage) bool {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return false
	}
	q.ch <- msg
	return true
}

// Poll implements Queue: it yields the next message, suspending until
// one is available or ctx is cancelled.
func (q *MemQueue) Poll(ctx context.Context) (*XMsg, error) {
	select {
	case msg, ok := <-q.ch:
		if !ok {
			return nil, ErrClosed
		}
		return New(msg, q, q.output), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements Queue; it is idempotent.
func (q *MemQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)
	return nil
}

// Len reports the number of messages currently buffered, for tests.
func (q *MemQueue) Len() int { return len(q.ch) }

// Closed reports whether Close has run, for tests asserting a replaced
// queue is actually torn down.
func (q *MemQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
