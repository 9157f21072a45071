package hooks

import (
	"context"
	"sync"
)

// Hook sites named by spec.md §9.
const (
	SitePolled    = "polled"
	SiteScheduled = "scheduled"
	SiteSubmitted = "submitted"
	SiteExecuted  = "executed"
	SitePublished = "published"
)

// Event carries the hook site name and arbitrary structured fields,
// typically the same fields pkg/log would attach to a log line at that
// point (queue, message id, pipeline name, resource names).
type Event struct {
	Site   string
	Fields map[string]any
}

// Observer is invoked synchronously at a hook site. An error returned
// here is observational only: it never aborts the call that fired the
// hook, it is delivered on Hooks.Failures instead.
type Observer func(ctx context.Context, ev Event) error

// Failure is one observer error, reported via the Failures channel
// rather than returned to the hook site's caller.
type Failure struct {
	Site string
	Err  error
}

// Hooks holds the registered observers for each hook site.
type Hooks struct {
	mu        sync.RWMutex
	observers map[string][]Observer
	failures  chan Failure
}

// New creates an empty Hooks with a buffered failure channel; a full
// buffer drops the oldest-pending failure rather than ever blocking the
// hook site that is reporting it.
func New() *Hooks {
	return &Hooks{
		observers: make(map[string][]Observer),
		failures:  make(chan Failure, 256),
	}
}

// Register adds an observer at the given site, run in registration
// order on every future Fire call for that site.
func (h *Hooks) Register(site string, obs Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers[site] = append(h.observers[site], obs)
}

// Fire invokes every observer registered at site, synchronously, in
// registration order. Observer errors are reported on Failures and
// never returned to the caller.
func (h *Hooks) Fire(ctx context.Context, site string, fields map[string]any) {
	if h == nil {
		return
	}
	h.mu.RLock()
	obs := h.observers[site]
	h.mu.RUnlock()
	if len(obs) == 0 {
		return
	}
	ev := Event{Site: site, Fields: fields}
	for _, o := range obs {
		if err := o(ctx, ev); err != nil {
			h.reportFailure(Failure{Site: site, Err: err})
		}
	}
}

func (h *Hooks) reportFailure(f Failure) {
	select {
	case h.failures <- f:
	default:
		// Buffer full: drop the oldest to make room rather than block
		// the hook site.
		select {
		case <-h.failures:
		default:
		}
		select {
		case h.failures <- f:
		default:
		}
	}
}

// Failures returns the channel hook_failed observers are delivered on.
func (h *Hooks) Failures() <-chan Failure {
	return h.failures
}
