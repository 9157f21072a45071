package executors

import (
	"context"

	"github.com/saturn-sh/saturn/pkg/types"
)

// Noop returns an empty PipelineResult for every message. Used by tests
// and local development wiring that never reaches a real pipeline
// runtime.
type Noop struct{}

// NewNoop returns a ready Noop executor.
func NewNoop() *Noop { return &Noop{} }

// ProcessMessage always succeeds with no outputs and no resources used.
func (n *Noop) ProcessMessage(ctx context.Context, msg types.PipelineMessage) (types.PipelineResult, error) {
	return types.PipelineResult{}, nil
}

// Close is a no-op.
func (n *Noop) Close(ctx context.Context) error { return nil }
