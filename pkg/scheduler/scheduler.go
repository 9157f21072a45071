package scheduler

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/saturn-sh/saturn/pkg/hooks"
	"github.com/saturn-sh/saturn/pkg/log"
	"github.com/saturn-sh/saturn/pkg/metrics"
	"github.com/saturn-sh/saturn/pkg/queue"
)

// entry tracks one active queue and the state of its poll pump.
type entry struct {
	q      queue.Queue
	cancel context.CancelFunc

	mu       sync.Mutex
	ready    bool
	msg      *queue.XMsg
	err      error
	consumed chan struct{}
}

// Scheduler is a fair round-robin scheduler over a dynamic set of
// Queues. It maintains one background poll pump per active queue and
// serves XMsgs to Next() callers in cursor order, skipping any queue
// that is parked or not yet ready.
type Scheduler struct {
	logger zerolog.Logger
	hooks  *hooks.Hooks

	mu      sync.Mutex
	order   []string
	entries map[string]*entry
	closed  bool

	wake chan struct{}
	wg   sync.WaitGroup
}

// New creates an empty Scheduler. h may be nil, in which case hook
// firing is a no-op.
func New(h *hooks.Hooks) *Scheduler {
	return &Scheduler{
		logger:  log.WithComponent("scheduler"),
		hooks:   h,
		entries: make(map[string]*entry),
		wake:    make(chan struct{}, 1),
	}
}

// Add registers q with the scheduler and starts its poll pump. Inserted
// at the tail of the cursor order; visible to Next() no later than the
// next full revolution.
func (s *Scheduler) Add(q queue.Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	name := q.Name()
	if _, exists := s.entries[name]; exists {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{q: q, cancel: cancel, consumed: make(chan struct{}, 1)}
	s.entries[name] = e
	s.order = append(s.order, name)
	metrics.SchedulerActiveQueues.Inc()

	s.wg.Add(1)
	go s.pump(ctx, e)
}

// Remove stops q's poll pump, discards any in-flight poll result, and
// closes q in the background. The close is awaited by Close().
func (s *Scheduler) Remove(q queue.Queue) {
	s.mu.Lock()
	name := q.Name()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.entries, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	e.cancel()
	metrics.SchedulerActiveQueues.Dec()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := q.Close(context.Background()); err != nil {
			s.logger.Warn().Err(err).Str("queue", name).Msg("queue close failed")
		}
	}()
}

// pump keeps exactly one Poll in flight for e.q at all times, waiting
// for the queue to be unparked before issuing the next Poll.
func (s *Scheduler) pump(ctx context.Context, e *entry) {
	defer s.wg.Done()
	for {
		if pc, ok := e.q.(interface {
			WaitUnparked(context.Context) error
		}); ok {
			if err := pc.WaitUnparked(ctx); err != nil {
				return
			}
		}

		msg, err := e.q.Poll(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			s.hooks.Fire(ctx, hooks.SitePolled, map[string]any{"queue": e.q.Name()})
		}

		e.mu.Lock()
		e.msg, e.err, e.ready = msg, err, true
		e.mu.Unlock()

		select {
		case s.wake <- struct{}{}:
		default:
		}

		// Wait for Next() to consume this result before polling again,
		// so at most one poll result per queue is ever pending.
		select {
		case <-ctx.Done():
			return
		case <-e.consumed:
		}
	}
}

// Next returns the next ready XMsg in cursor order, blocking until one
// is available, a parked/empty revolution completes and then waits
// again, or ctx is cancelled.
func (s *Scheduler) Next(ctx context.Context) (*queue.XMsg, error) {
	cursor := 0
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, queue.ErrClosed
		}
		order := append([]string(nil), s.order...)
		entries := s.entries
		s.mu.Unlock()

		if len(order) == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-s.wake:
			}
			continue
		}

		if cursor >= len(order) {
			cursor = 0
		}

		found := false
		for i := 0; i < len(order); i++ {
			idx := (cursor + i) % len(order)
			e, ok := entries[order[idx]]
			if !ok {
				continue
			}
			e.mu.Lock()
			if e.ready {
				msg, err := e.msg, e.err
				e.ready, e.msg, e.err = false, nil, nil
				e.mu.Unlock()
				select {
				case e.consumed <- struct{}{}:
				default:
				}
				cursor = idx + 1
				found = true
				if err != nil {
					return nil, err
				}
				metrics.SchedulerServed.Inc()
				return msg, nil
			}
			e.mu.Unlock()
		}
		if found {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.wake:
		}
	}
}

// Close cancels every pump, closes every remaining queue, and waits for
// all background close operations to finish.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	entries := s.entries
	s.entries = make(map[string]*entry)
	s.order = nil
	s.mu.Unlock()

	// Wake any Next() call currently blocked waiting for a ready queue
	// so it observes s.closed and returns promptly rather than waiting
	// for its caller's own context to be cancelled separately.
	select {
	case s.wake <- struct{}{}:
	default:
	}

	for _, e := range entries {
		e.cancel()
		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			if err := e.q.Close(ctx); err != nil {
				s.logger.Warn().Err(err).Str("queue", e.q.Name()).Msg("queue close failed")
			}
		}(e)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
