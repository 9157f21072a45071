/*
Package topic defines the Topic interface the ExecutorManager publishes
pipeline outputs to. Concrete implementations (in-memory channel, HTTP
post) live in pkg/topics; this package only fixes the contract so
pkg/queue and pkg/executor can depend on it without depending on any
particular transport.
*/
package topic

import (
	"context"

	"github.com/saturn-sh/saturn/pkg/types"
)

// Topic accepts published messages, honoring its own backpressure.
// Publish returns true if the message was accepted, false if declined;
// a caller declining with wait=false is expected to retry with
// wait=true (which blocks, honoring ctx cancellation) or drop the
// message.
type Topic interface {
	Publish(ctx context.Context, message types.Message, wait bool) (bool, error)
}
