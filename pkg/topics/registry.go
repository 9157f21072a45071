package topics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/saturn-sh/saturn/pkg/topic"
)

// Factory builds a Topic from a TopicSpec's Options.
type Factory func(options map[string]string) (topic.Topic, error)

// Registry resolves a topic.Topic by the Name a types.TopicSpec
// carries, the Go expression of the same string-keyed-registry design
// applied to queues and executors.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	channels  map[string]*Channel
}

// NewRegistry returns a Registry pre-populated with "channel" and
// "http".
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		channels:  make(map[string]*Channel),
	}
	r.Register("channel", func(options map[string]string) (topic.Topic, error) {
		capacity := 64
		if v := options["capacity"]; v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("topics: invalid capacity %q: %w", v, err)
			}
			capacity = parsed
		}
		return r.namedChannel(options["name"], capacity), nil
	})
	r.Register("http", func(options map[string]string) (topic.Topic, error) {
		url := options["url"]
		if url == "" {
			return nil, fmt.Errorf("topics: http topic requires a \"url\" option")
		}
		return NewHTTP(url), nil
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
func (r *Registry) Build(name string, options map[string]string) (topic.Topic, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("topics: no factory registered for %q", name)
	}
	return f(options)
}

// namedChannel returns the Channel registered under name, creating one
// on first use so multiple QueueItems publishing to the same named
// in-memory topic share one backing channel.
func (r *Registry) namedChannel(name string, capacity int) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.channels[name]; ok {
		return c
	}
	c := NewChannel(capacity)
	r.channels[name] = c
	return c
}
