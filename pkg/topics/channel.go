package topics

import (
	"context"

	"github.com/saturn-sh/saturn/pkg/types"
)

// Channel is an in-memory Topic backed by a buffered channel. Publish
// with wait=false declines once the buffer is full; wait=true blocks
// until there is room or ctx is cancelled.
type Channel struct {
	ch chan types.Message
}

// NewChannel returns a Channel with the given buffer capacity.
func NewChannel(capacity int) *Channel {
	return &Channel{ch: make(chan types.Message, capacity)}
}

// Publish implements topic.Topic.
func (c *Channel) Publish(ctx context.Context, message types.Message, wait bool) (bool, error) {
	if !wait {
		select {
		case c.ch <- message:
			return true, nil
		default:
			return false, nil
		}
	}

	select {
	case c.ch <- message:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Messages exposes the receive side for tests and in-process
// consumers.
func (c *Channel) Messages() <-chan types.Message {
	return c.ch
}
