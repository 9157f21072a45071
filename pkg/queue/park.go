package queue

import (
	"context"
	"sync"
)

// ParkCounter implements the reference-counted park/unpark behavior
// required of every Queue, plus a broadcast wake-up so the Scheduler's
// poll pump can resume within one revolution of the last Unpark rather
// than poll on a timer.
type ParkCounter struct {
	mu    sync.Mutex
	count int
	ch    chan struct{}
}

// Park increments the park depth.
func (p *ParkCounter) Park() {
	p.mu.Lock()
	if p.count == 0 {
		p.ch = make(chan struct{})
	}
	p.count++
	p.mu.Unlock()
}

// Unpark decrements the park depth. A stray Unpark on an unparked
// counter is a no-op rather than going negative.
func (p *ParkCounter) Unpark() {
	p.mu.Lock()
	if p.count > 0 {
		p.count--
		if p.count == 0 && p.ch != nil {
			close(p.ch)
			p.ch = nil
		}
	}
	p.mu.Unlock()
}

// Parked reports whether the park depth is above zero.
func (p *ParkCounter) Parked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count > 0
}

// Depth returns the current park depth, for tests asserting it returns
// to zero after each message.
func (p *ParkCounter) Depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// WaitUnparked blocks until the park depth reaches zero or ctx is
// cancelled. It returns immediately if the counter is not parked.
func (p *ParkCounter) WaitUnparked(ctx context.Context) error {
	p.mu.Lock()
	ch := p.ch
	parked := p.count > 0
	p.mu.Unlock()
	if !parked {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
