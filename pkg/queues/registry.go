package queues

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/saturn-sh/saturn/pkg/queue"
	"github.com/saturn-sh/saturn/pkg/topic"
	"github.com/saturn-sh/saturn/pkg/types"
)

// Factory builds a queue.Queue from a QueueItem assignment and its
// resolved output routing table.
type Factory func(item types.QueueItem, output map[string][]topic.Topic) (queue.Queue, error)

// Registry resolves a queue.Queue by the Name a types.InputSpec
// carries, the same string-keyed-factory shape as pkg/executors and
// pkg/topics.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a Registry pre-populated with "memory" and
// "http".
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("memory", func(item types.QueueItem, output map[string][]topic.Topic) (queue.Queue, error) {
		capacity := 64
		if v := item.Input.Options["capacity"]; v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("queues: invalid capacity %q: %w", v, err)
			}
			capacity = parsed
		}
		return queue.NewMemQueue(item.Name, output, capacity), nil
	})
	r.Register("http", func(item types.QueueItem, output map[string][]topic.Topic) (queue.Queue, error) {
		return NewHTTP(item, output)
	})
	return r
}

// Register adds or replaces the Factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build resolves item.Input.Name and invokes its Factory.
func (r *Registry) Build(item types.QueueItem, output map[string][]topic.Topic) (queue.Queue, error) {
	r.mu.RLock()
	f, ok := r.factories[item.Input.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("queues: no factory registered for input %q", item.Input.Name)
	}
	return f(item, output)
}
