package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saturn-sh/saturn/internal/config"
	"github.com/saturn-sh/saturn/pkg/executor"
	"github.com/saturn-sh/saturn/pkg/executors"
	"github.com/saturn-sh/saturn/pkg/hooks"
	"github.com/saturn-sh/saturn/pkg/log"
	"github.com/saturn-sh/saturn/pkg/metrics"
	"github.com/saturn-sh/saturn/pkg/queue"
	"github.com/saturn-sh/saturn/pkg/queues"
	"github.com/saturn-sh/saturn/pkg/resources"
	"github.com/saturn-sh/saturn/pkg/scheduler"
	"github.com/saturn-sh/saturn/pkg/taskmanager"
	"github.com/saturn-sh/saturn/pkg/topic"
	"github.com/saturn-sh/saturn/pkg/topics"
	"github.com/saturn-sh/saturn/pkg/types"
	"github.com/saturn-sh/saturn/pkg/workmanager"
)

// closeTimeout bounds how long Stop waits for the TaskManager and
// ExecutorManager to drain in-flight work.
const closeTimeout = 30 * time.Second

// TaskFactory builds a taskmanager.Task from a TaskItem's Options, for
// one named task Kind.
type TaskFactory func(options map[string]string) taskmanager.Task

// Broker owns every other component and runs the queue loop, sync
// loop, and TaskManager for as long as Run's context is live.
type Broker struct {
	logger zerolog.Logger
	cfg    config.Config
	hooks  *hooks.Hooks

	resources   *resources.Manager
	scheduler   *scheduler.Scheduler
	executorMgr *executor.Manager
	workMgr     *workmanager.Manager
	taskMgr     *taskmanager.Manager

	queueFactory *queues.Registry
	topicFactory *topics.Registry
	taskFactory  map[string]TaskFactory

	mu      sync.Mutex
	queues  map[string]queue.Queue
	closed  bool
	stopped chan struct{}
}

// New builds a Broker from cfg, resolving the configured Executor from
// the default executors.Registry. Callers needing a non-default
// executor/topic/queue registry should use NewWithRegistries.
func New(cfg config.Config) (*Broker, error) {
	return NewWithRegistries(cfg, executors.NewRegistry(), topics.NewRegistry(), queues.NewRegistry())
}

// NewWithRegistries builds a Broker with explicit registries, for
// callers wiring in additional executor/topic/queue kinds.
func NewWithRegistries(cfg config.Config, execReg *executors.Registry, topicReg *topics.Registry, queueReg *queues.Registry) (*Broker, error) {
	exec, err := execReg.Build(normalizeExecutorClass(cfg.ExecutorClass), cfg.ExecutorOptions)
	if err != nil {
		return nil, fmt.Errorf("broker: resolve executor %q: %w", cfg.ExecutorClass, err)
	}

	h := hooks.New()
	resourcesMgr := resources.New()
	executorMgr := executor.New(resourcesMgr, exec, cfg.WorkItemsPerWorker, h)

	b := &Broker{
		logger:       log.WithComponent("broker"),
		cfg:          cfg,
		hooks:        h,
		resources:    resourcesMgr,
		scheduler:    scheduler.New(h),
		executorMgr:  executorMgr,
		workMgr:      workmanager.New(cfg.ControlPlaneURL, cfg.WorkerID, nil),
		taskMgr:      taskmanager.New(),
		queueFactory: queueReg,
		topicFactory: topicReg,
		taskFactory:  map[string]TaskFactory{},
		queues:       make(map[string]queue.Queue),
		stopped:      make(chan struct{}),
	}
	return b, nil
}

// RegisterTaskKind associates a TaskFactory with the Kind string a
// TaskItem may carry.
func (b *Broker) RegisterTaskKind(kind string, f TaskFactory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.taskFactory[kind] = f
}

// Run starts the executor pool, then runs the queue loop and sync loop
// until ctx is cancelled or one of them returns a fatal error (spec.md
// §7 kind 5). It always calls Stop before returning.
func (b *Broker) Run(ctx context.Context) error {
	b.executorMgr.Start()
	defer b.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		b.drainHookFailures(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- b.queueLoop(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		b.workMgr.Run(runCtx, b.cfg.SyncInterval, b.applySync)
		errCh <- nil
	}()

	var fatal error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			fatal = err
			cancel()
		}
	}

	cancel()
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil && fatal == nil {
			fatal = err
		}
	}

	if fatal != nil && !errors.Is(fatal, context.Canceled) {
		return fatal
	}
	return nil
}

// drainHookFailures logs every hook_failed event until ctx is
// cancelled, so an Observer's error is always surfaced somewhere
// instead of sitting in the Hooks failure buffer until it is dropped
// (spec.md §9's "hook_failed" channel).
func (b *Broker) drainHookFailures(ctx context.Context) {
	for {
		select {
		case f := <-b.hooks.Failures():
			b.logger.Warn().Err(f.Err).Str("site", f.Site).Msg("hook observer failed")
		case <-ctx.Done():
			return
		}
	}
}

// queueLoop drains the Scheduler and hands every XMsg to the
// ExecutorManager, the "queue loop" of spec.md §4.1. Poll/Submit errors
// from a cancelled context end the loop cleanly; any other error is
// logged and the loop continues (spec.md §7 kind 1).
func (b *Broker) queueLoop(ctx context.Context) error {
	for {
		xmsg, err := b.scheduler.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Warn().Err(err).Msg("scheduler poll failed")
			continue
		}

		b.hooks.Fire(ctx, hooks.SiteScheduled, map[string]any{"pipeline": xmsg.Message.Pipeline})

		if err := b.executorMgr.Submit(ctx, xmsg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Warn().Err(err).Msg("submit failed")
		}
	}
}

// applySync applies one WorkSync to the Scheduler, TaskManager, and
// ResourcesManager. Resources apply adds before drops; queues and
// tasks apply drops before adds — spec.md §4.2's explicit order.
func (b *Broker) applySync(ws workmanager.WorkSync) {
	for _, r := range ws.Resources.Add {
		b.resources.Add(r)
	}
	for _, r := range ws.Resources.Drop {
		b.resources.Remove(r.Type, r.Name)
	}

	for _, item := range ws.Queues.Drop {
		b.dropQueue(item.Name)
	}
	for _, item := range ws.Queues.Add {
		if err := b.addQueue(item); err != nil {
			b.logger.Warn().Err(err).Str("queue", item.Name).Msg("failed to add queue")
		}
	}

	for _, t := range ws.Tasks.Drop {
		b.taskMgr.Remove(t.Name)
	}
	for _, t := range ws.Tasks.Add {
		b.addTask(t)
	}
}

func (b *Broker) addQueue(item types.QueueItem) error {
	output := make(map[string][]topic.Topic, len(item.Output))
	for channel, specs := range item.Output {
		for _, spec := range specs {
			t, err := b.topicFactory.Build(spec.Name, spec.Options)
			if err != nil {
				return fmt.Errorf("broker: resolve topic %q for channel %q: %w", spec.Name, channel, err)
			}
			output[channel] = append(output[channel], t)
		}
	}

	q, err := b.queueFactory.Build(item, output)
	if err != nil {
		return fmt.Errorf("broker: resolve input %q: %w", item.Input.Name, err)
	}

	b.mu.Lock()
	b.queues[item.Name] = q
	b.mu.Unlock()

	b.scheduler.Add(q)
	metrics.AssignedQueuesTotal.Inc()
	return nil
}

func (b *Broker) dropQueue(name string) {
	b.mu.Lock()
	q, ok := b.queues[name]
	delete(b.queues, name)
	b.mu.Unlock()
	if !ok {
		return
	}
	b.scheduler.Remove(q)
	metrics.AssignedQueuesTotal.Dec()
}

func (b *Broker) addTask(item types.TaskItem) {
	b.mu.Lock()
	factory, ok := b.taskFactory[item.Kind]
	b.mu.Unlock()
	if !ok {
		b.logger.Warn().Str("task", item.Name).Str("kind", item.Kind).Msg("no task factory registered for kind")
		return
	}
	b.taskMgr.Add(item.Name, factory(item.Options))
}

// Stop triggers shutdown, idempotently and safely from any goroutine:
// it closes the Scheduler, TaskManager, Services (nothing to close),
// then the Executor — the reverse of the dependency order components
// were built in.
func (b *Broker) Stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.stopped)

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := b.scheduler.Close(closeCtx); err != nil {
		b.logger.Warn().Err(err).Msg("scheduler close")
	}
	if err := b.taskMgr.Close(closeTimeout); err != nil {
		b.logger.Warn().Err(err).Msg("task manager close")
	}
	if err := b.executorMgr.Close(closeCtx); err != nil {
		b.logger.Warn().Err(err).Msg("executor manager close")
	}
}

// Hooks exposes the broker's hook registry for observers to attach to.
func (b *Broker) Hooks() *hooks.Hooks { return b.hooks }

// normalizeExecutorClass maps original_source's dotted/CamelCase class
// names (SATURN_WORKER__EXECUTOR_CLS default "ProcessExecutor") onto
// executors.Registry's lowercase string keys, so config carries the
// same literal default default_config.py ships without the registry
// itself needing CamelCase keys.
func normalizeExecutorClass(class string) string {
	name := strings.ToLower(class)
	name = strings.TrimSuffix(name, "executor")
	return name
}
