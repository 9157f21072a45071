package taskmanager

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saturn-sh/saturn/pkg/log"
)

// Task is a long-lived background job. It should return promptly once
// ctx is cancelled.
type Task func(ctx context.Context) error

type running struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager is the TaskManager of spec.md §4.6.
type Manager struct {
	logger zerolog.Logger

	mu     sync.Mutex
	tasks  map[string]*running
	closed bool
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		logger: log.WithComponent("taskmanager"),
		tasks:  make(map[string]*running),
	}
}

// Add starts fn under name. A second Add for the same name is a no-op;
// the caller is expected to Remove first if it wants to replace one.
func (m *Manager) Add(name string, fn Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if _, exists := m.tasks[name]; exists {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &running{cancel: cancel, done: make(chan struct{})}
	m.tasks[name] = r

	go func() {
		defer close(r.done)
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.Error().Interface("panic", rec).Str("task", name).Msg("task panicked")
			}
		}()
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			m.logger.Error().Err(err).Str("task", name).Msg("task exited with error")
		}
	}()
}

// Remove cancels name's task and waits for it to return. A no-op if
// name isn't running.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	r, ok := m.tasks[name]
	if ok {
		delete(m.tasks, name)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	r.cancel()
	<-r.done
}

// Close cancels every task and waits for them all to finish, bounded
// by timeout.
func (m *Manager) Close(timeout time.Duration) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	tasks := m.tasks
	m.tasks = make(map[string]*running)
	m.mu.Unlock()

	for _, r := range tasks {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		for _, r := range tasks {
			<-r.done
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
