package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saturn-sh/saturn/pkg/hooks"
	"github.com/saturn-sh/saturn/pkg/log"
	"github.com/saturn-sh/saturn/pkg/metrics"
	"github.com/saturn-sh/saturn/pkg/queue"
	"github.com/saturn-sh/saturn/pkg/resources"
	"github.com/saturn-sh/saturn/pkg/types"
)

// Executor is the pluggable pipeline-execution backend named by
// spec.md §6. Implementations may shell out to a process, dispatch to
// a remote cluster, or do nothing.
type Executor interface {
	ProcessMessage(ctx context.Context, msg types.PipelineMessage) (types.PipelineResult, error)
	Close(ctx context.Context) error
}

const defaultOutputConcurrency = 32

// Manager is the ExecutorManager of spec.md §4.5.
type Manager struct {
	logger      zerolog.Logger
	hooks       *hooks.Hooks
	resources   *resources.Manager
	executor    Executor
	concurrency int

	handoff   chan *queue.XMsg
	outputSem chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Manager with the given worker concurrency. The
// hand-off channel is fixed at capacity 1 per spec.md §4.5. h may be
// nil, in which case hook firing is a no-op.
func New(resourcesMgr *resources.Manager, exec Executor, concurrency int, h *hooks.Hooks) *Manager {
	if concurrency <= 0 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		logger:      log.WithComponent("executor"),
		hooks:       h,
		resources:   resourcesMgr,
		executor:    exec,
		concurrency: concurrency,
		handoff:     make(chan *queue.XMsg, 1),
		outputSem:   make(chan struct{}, defaultOutputConcurrency),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start spawns the worker pool.
func (m *Manager) Start() {
	for i := 0; i < m.concurrency; i++ {
		m.wg.Add(1)
		go m.runWorker()
	}
}

func (m *Manager) runWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case xmsg := <-m.handoff:
			metrics.ExecutorQueueDepth.Dec()
			m.process(xmsg)
		}
	}
}

// Submit implements spec.md §4.5's fast/slow path protocol. The fast
// path tries a non-blocking resource acquisition and, on success,
// pushes directly onto the hand-off channel (which may itself suspend
// — the backpressure point). The slow path parks the XMsg's source
// queue and resumes it once a background acquisition succeeds.
func (m *Manager) Submit(ctx context.Context, xmsg *queue.XMsg) error {
	ok, err := m.acquireResources(ctx, xmsg, false)
	if err != nil {
		return err
	}
	if ok {
		select {
		case m.handoff <- xmsg:
			metrics.ExecutorQueueDepth.Inc()
			m.hooks.Fire(ctx, hooks.SiteSubmitted, map[string]any{"pipeline": xmsg.Message.Pipeline})
			return nil
		case <-ctx.Done():
			xmsg.Release()
			return ctx.Err()
		}
	}

	xmsg.Park()
	m.wg.Add(1)
	go m.delayedSubmit(xmsg)
	return nil
}

func (m *Manager) delayedSubmit(xmsg *queue.XMsg) {
	defer m.wg.Done()
	defer xmsg.Unpark()

	ok, err := m.acquireResources(m.ctx, xmsg, true)
	if err != nil || !ok {
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn().Err(err).Msg("delayed resource acquisition failed")
		}
		xmsg.Release()
		return
	}

	select {
	case m.handoff <- xmsg:
		metrics.ExecutorQueueDepth.Inc()
		m.hooks.Fire(m.ctx, hooks.SiteSubmitted, map[string]any{"pipeline": xmsg.Message.Pipeline})
	case <-m.ctx.Done():
		xmsg.Release()
	}
}

// acquireResources acquires a lease covering every type the message
// names, if any, and attaches it to xmsg. Returns false (no error)
// only for the wait=false/ErrUnavailable case.
func (m *Manager) acquireResources(ctx context.Context, xmsg *queue.XMsg, wait bool) (bool, error) {
	missing := xmsg.Message.MissingResources
	if len(missing) == 0 {
		return true, nil
	}

	lease, err := m.resources.AcquireMany(ctx, missing, wait)
	if err != nil {
		if errors.Is(err, resources.ErrUnavailable) {
			return false, nil
		}
		return false, err
	}
	xmsg.Resources = lease
	xmsg.OnRelease(lease.Release)
	return true, nil
}

func (m *Manager) process(xmsg *queue.XMsg) {
	defer xmsg.Release()

	pipeline := xmsg.Message.Pipeline
	timer := metrics.NewTimer()
	result, err := func() (res types.PipelineResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("executor: pipeline panicked: %v", r)
			}
		}()
		return m.executor.ProcessMessage(m.ctx, xmsg.Message)
	}()
	timer.ObserveDurationVec(metrics.PipelineExecutionDuration, pipeline)
	if err != nil {
		xlog := log.WithXMsg(xmsg.Queue.Name(), pipeline, xmsg.Message.Message.ID, xmsg.Message.MissingResources)
		xlog.Error().Err(err).Msg("pipeline execution failed")
		metrics.MessagesFailedTotal.WithLabelValues(pipeline, "executor_error").Inc()
		return
	}
	metrics.MessagesProcessedTotal.WithLabelValues(pipeline).Inc()
	m.hooks.Fire(m.ctx, hooks.SiteExecuted, map[string]any{"pipeline": pipeline, "message_id": xmsg.Message.Message.ID})

	if xmsg.Resources != nil {
		for _, used := range result.ResourcesUsed {
			if used.ReleaseAt != nil {
				xmsg.Resources.Use(used.Type, *used.ReleaseAt)
			}
		}
	}

	select {
	case m.outputSem <- struct{}{}:
	case <-m.ctx.Done():
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() { <-m.outputSem }()
		m.consumeOutput(xmsg, result.Outputs)
	}()
}

// consumeOutput fans a pipeline's outputs out to their routed topics,
// parking the source queue around any topic publish that declines the
// non-blocking attempt, and unparking exactly once regardless of
// outcome.
func (m *Manager) consumeOutput(xmsg *queue.XMsg, outputs []types.PipelineOutput) {
	parked := false
	defer func() {
		if parked {
			xmsg.Unpark()
		}
	}()

	for _, item := range outputs {
		topics := xmsg.Output[item.Channel]
		for _, t := range topics {
			if t == nil {
				continue
			}
			accepted, err := t.Publish(m.ctx, item.Message, false)
			if err != nil {
				metrics.TopicPublishTotal.WithLabelValues(item.Channel, "error").Inc()
				m.logger.Warn().Err(err).Str("channel", item.Channel).Msg("topic publish failed")
				continue
			}
			if accepted {
				metrics.TopicPublishTotal.WithLabelValues(item.Channel, "accepted").Inc()
				m.hooks.Fire(m.ctx, hooks.SitePublished, map[string]any{"channel": item.Channel})
				continue
			}

			if !parked {
				xmsg.Park()
				parked = true
			}
			if _, err := t.Publish(m.ctx, item.Message, true); err != nil {
				metrics.TopicPublishTotal.WithLabelValues(item.Channel, "error").Inc()
				m.logger.Warn().Err(err).Str("channel", item.Channel).Msg("topic publish failed after wait")
				continue
			}
			metrics.TopicPublishTotal.WithLabelValues(item.Channel, "accepted_after_wait").Inc()
			m.hooks.Fire(m.ctx, hooks.SitePublished, map[string]any{"channel": item.Channel})
		}
	}
}

// Close cancels all pending acquisitions and worker tasks, drains the
// hand-off channel by releasing (not executing) any remaining XMsgs,
// and waits for background work to finish or ctx to expire.
func (m *Manager) Close(ctx context.Context) error {
	m.cancel()

drain:
	for {
		select {
		case xmsg := <-m.handoff:
			metrics.ExecutorQueueDepth.Dec()
			xmsg.Release()
		default:
			break drain
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return m.executor.Close(ctx)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return errors.New("executor: close timed out waiting for workers")
	}
}
