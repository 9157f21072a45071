package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/saturn-sh/saturn/pkg/resources"
	"github.com/saturn-sh/saturn/pkg/topic"
	"github.com/saturn-sh/saturn/pkg/types"
)

// ErrClosed is returned by Poll once a queue has been closed or removed
// from the Scheduler.
var ErrClosed = errors.New("queue: closed")

// Queue is a named, polymorphic producer of XMsgs. Poll may suspend
// until a message is available or the context is cancelled. Park and
// Unpark are idempotent and reference-counted: N calls to Park require
// N calls to Unpark before the queue is eligible for polling again.
type Queue interface {
	Name() string
	Poll(ctx context.Context) (*XMsg, error)
	Park()
	Unpark()
	Close(ctx context.Context) error
}

// XMsg (ExecutableMessage) is a PipelineMessage in flight. It owns a
// back-reference to its source Queue so any subsystem downstream of the
// Scheduler — the ExecutorManager, an output consumer — can park and
// unpark that queue, an output routing table from channel name to the
// topics an output on that channel should be published to, and a
// scoped release list invoked once on completion or failure so any
// resource leases attached to this message are always released.
type XMsg struct {
	Message types.PipelineMessage
	Queue   Queue
	Output  map[string][]topic.Topic

	// Resources is populated by the ExecutorManager once a lease
	// covering every type Message.ResourceTypes names has been
	// acquired; nil until then, or for messages needing none.
	Resources *resources.Lease

	mu         sync.Mutex
	released   bool
	releaseFns []func()
}

// New creates an XMsg bound to its source queue and output routing
// table.
func New(msg types.PipelineMessage, q Queue, output map[string][]topic.Topic) *XMsg {
	return &XMsg{Message: msg, Queue: q, Output: output}
}

// Park suspends polling of this XMsg's source queue.
func (x *XMsg) Park() { x.Queue.Park() }

// Unpark resumes polling of this XMsg's source queue.
func (x *XMsg) Unpark() { x.Queue.Unpark() }

// OnRelease registers a callback run exactly once when Release is
// called, in LIFO order (the most recently attached resource is
// released first, mirroring a defer stack). Safe to call from any
// goroutine before Release runs.
func (x *XMsg) OnRelease(fn func()) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.released {
		fn()
		return
	}
	x.releaseFns = append(x.releaseFns, fn)
}

// Release runs every registered release callback exactly once. It is
// safe to call multiple times or concurrently; only the first call has
// effect. Every exit path of the ExecutorManager worker body — success,
// pipeline failure, cancellation — must reach this.
func (x *XMsg) Release() {
	x.mu.Lock()
	if x.released {
		x.mu.Unlock()
		return
	}
	x.released = true
	fns := x.releaseFns
	x.releaseFns = nil
	x.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
