package queues

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/saturn-sh/saturn/pkg/queue"
	"github.com/saturn-sh/saturn/pkg/topic"
	"github.com/saturn-sh/saturn/pkg/types"
)

const (
	httpQueueDefaultTimeout  = 5 * time.Second
	httpQueueDefaultInterval = 500 * time.Millisecond
)

// HTTP polls a URL for the next types.Message via GET. A 204 or 404
// response means no message is currently available and Poll retries
// after a short interval; any other non-2xx status is an error.
type HTTP struct {
	queue.ParkCounter

	name     string
	url      string
	pipeline types.PipelineSpec
	output   map[string][]topic.Topic
	client   *http.Client
	interval time.Duration

	mu     sync.Mutex
	closed bool
}

// NewHTTP builds an HTTP queue named item.Name, polling
// item.Input.Options["url"] and producing PipelineMessages for
// item.Pipeline, routed to output.
func NewHTTP(item types.QueueItem, output map[string][]topic.Topic) (*HTTP, error) {
	url := item.Input.Options["url"]
	if url == "" {
		return nil, fmt.Errorf("queues: http queue %q requires an \"url\" input option", item.Name)
	}
	return &HTTP{
		name:     item.Name,
		url:      url,
		pipeline: item.Pipeline,
		output:   output,
		client:   &http.Client{Timeout: httpQueueDefaultTimeout},
		interval: httpQueueDefaultInterval,
	}, nil
}

// Name implements queue.Queue.
func (h *HTTP) Name() string { return h.name }

// Poll implements queue.Queue: it issues one GET per call, retrying
// after interval on an empty response until a message arrives or ctx
// is cancelled.
func (h *HTTP) Poll(ctx context.Context) (*queue.XMsg, error) {
	for {
		msg, ok, err := h.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			resourceTypes := append([]string(nil), h.pipeline.ResourceTypes...)
			pmsg := types.PipelineMessage{
				Message:          msg,
				Pipeline:         h.pipeline.Name,
				ResourceTypes:    resourceTypes,
				MissingResources: append([]string(nil), resourceTypes...),
			}
			return queue.New(pmsg, h, h.output), nil
		}

		select {
		case <-time.After(h.interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// fetch issues one GET, returning ok=false when the source reports no
// message currently available (204 or 404).
func (h *HTTP) fetch(ctx context.Context) (types.Message, bool, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return types.Message{}, false, queue.ErrClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return types.Message{}, false, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return types.Message{}, false, ctx.Err()
		}
		return types.Message{}, false, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return types.Message{}, false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return types.Message{}, false, fmt.Errorf("queues: http queue %q: unexpected status %d", h.name, resp.StatusCode)
	}

	var msg types.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return types.Message{}, false, fmt.Errorf("queues: http queue %q: decode message: %w", h.name, err)
	}
	return msg, true, nil
}

// Close implements queue.Queue; it is idempotent.
func (h *HTTP) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
