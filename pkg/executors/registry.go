package executors

import (
	"fmt"
	"sync"

	"github.com/saturn-sh/saturn/pkg/executor"
)

// Factory builds an Executor from the options a TaskItem/config entry
// carries for it (command line, socket path, image name...).
type Factory func(options map[string]string) (executor.Executor, error)

// Registry is a string-keyed set of Factories, populated at startup and
// resolved once by name (internal/config's executor name field).
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a Registry pre-populated with the three executors
// this module ships: "noop", "process", "containerd".
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("noop", func(map[string]string) (executor.Executor, error) {
		return NewNoop(), nil
	})
	r.Register("process", func(options map[string]string) (executor.Executor, error) {
		return NewProcess(options)
	})
	r.Register("containerd", func(options map[string]string) (executor.Executor, error) {
		return NewContainerd(options)
	})
	return r
}

// Register adds or replaces the Factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build resolves name and invokes its Factory with options.
func (r *Registry) Build(name string, options map[string]string) (executor.Executor, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("executors: no factory registered for %q", name)
	}
	return f(options)
}
