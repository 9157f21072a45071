package resources

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/saturn-sh/saturn/pkg/types"
)

// ErrUnavailable is returned by AcquireMany(wait=false) when any
// requested type has no free instance.
var ErrUnavailable = errors.New("resources: unavailable")

// ErrClosed is returned to any acquisition still waiting when the
// Manager is closed.
var ErrClosed = errors.New("resources: closed")

type instance struct {
	resource types.Resource
	removed  bool
}

// Manager is the ResourcesManager of spec.md §4.4: a pool of named
// resource instances indexed by type, acquired all-or-nothing.
type Manager struct {
	mu     sync.Mutex
	cond   *sync.Cond
	pools  map[string][]*instance
	byName map[string]*instance
	queues map[string][]*ticket
	closed bool
}

type ticket struct{}

// New creates an empty Manager.
func New() *Manager {
	m := &Manager{
		pools:  make(map[string][]*instance),
		byName: make(map[string]*instance),
		queues: make(map[string][]*ticket),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Add makes r available for acquisition.
func (m *Manager) Add(r types.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst := &instance{resource: r}
	m.pools[r.Type] = append(m.pools[r.Type], inst)
	m.byName[r.Type+"/"+r.Name] = inst
	m.cond.Broadcast()
}

// Remove withdraws the named resource from future acquisition. A
// currently held lease on it is not revoked; the instance is simply
// dropped instead of returned to the pool on release.
func (m *Manager) Remove(resourceType, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := resourceType + "/" + name
	inst, ok := m.byName[key]
	if !ok {
		return
	}
	inst.removed = true
	delete(m.byName, key)
	pool := m.pools[resourceType]
	for i, p := range pool {
		if p == inst {
			m.pools[resourceType] = append(pool[:i], pool[i+1:]...)
			break
		}
	}
}

// Available reports how many free instances of a type are currently
// in the pool, for metrics sampling.
func (m *Manager) Available(resourceType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pools[resourceType])
}

// Close cancels every pending wait=true acquisition with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()
}

// Lease is a scoped, all-or-nothing hold on one instance of each
// requested type. Release must run on every exit path; callers model
// it the way spec.md calls for scoped acquisition, i.e. via defer.
type Lease struct {
	ID  string
	mgr *Manager

	mu        sync.Mutex
	held      map[string]*instance
	releaseAt map[string]time.Time
	released  bool
}

// AcquireMany acquires one instance of every type in reqTypes,
// atomically: on any failure path no instance is left held. With
// wait=false, an unavailable type fails immediately with
// ErrUnavailable. With wait=true, the call suspends — honoring ctx
// cancellation — until every type can be held simultaneously; waiters
// for a single type are served strictly in arrival order.
func (m *Manager) AcquireMany(ctx context.Context, reqTypes []string, wait bool) (*Lease, error) {
	sorted := append([]string(nil), reqTypes...)
	sort.Strings(sorted)

	if !wait {
		m.mu.Lock()
		defer m.mu.Unlock()
		held := make(map[string]*instance, len(sorted))
		for _, t := range sorted {
			inst := m.popAvailableLocked(t)
			if inst == nil {
				for rt, h := range held {
					m.pools[rt] = append(m.pools[rt], h)
				}
				return nil, ErrUnavailable
			}
			held[t] = inst
		}
		return m.newLease(held), nil
	}

	tk := &ticket{}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		case <-stop:
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range sorted {
		m.queues[t] = append(m.queues[t], tk)
	}

	for {
		if m.closed {
			m.dequeueTicketLocked(tk, sorted)
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			m.dequeueTicketLocked(tk, sorted)
			return nil, err
		}

		ready := true
		for _, t := range sorted {
			q := m.queues[t]
			if len(q) == 0 || q[0] != tk || len(m.pools[t]) == 0 {
				ready = false
				break
			}
		}
		if ready {
			held := make(map[string]*instance, len(sorted))
			for _, t := range sorted {
				m.queues[t] = m.queues[t][1:]
				held[t] = m.popAvailableLocked(t)
			}
			return m.newLease(held), nil
		}

		m.cond.Wait()
	}
}

func (m *Manager) newLease(held map[string]*instance) *Lease {
	return &Lease{
		ID:        uuid.New().String(),
		mgr:       m,
		held:      held,
		releaseAt: make(map[string]time.Time),
	}
}

// popAvailableLocked must be called with m.mu held.
func (m *Manager) popAvailableLocked(t string) *instance {
	pool := m.pools[t]
	if len(pool) == 0 {
		return nil
	}
	inst := pool[len(pool)-1]
	m.pools[t] = pool[:len(pool)-1]
	return inst
}

// dequeueTicketLocked must be called with m.mu held.
func (m *Manager) dequeueTicketLocked(tk *ticket, types []string) {
	for _, t := range types {
		q := m.queues[t]
		for i, qt := range q {
			if qt == tk {
				m.queues[t] = append(q[:i], q[i+1:]...)
				break
			}
		}
	}
}

// Use records that the held instance of resourceType was exercised by
// a pipeline execution, with an optional cooldown before it becomes
// available again. Mirrors spec.md §4.5's "record resources_used
// against the held leases".
func (l *Lease) Use(resourceType string, releaseAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.releaseAt == nil {
		l.releaseAt = make(map[string]time.Time)
	}
	l.releaseAt[resourceType] = releaseAt
}

// Release returns every held instance to its pool — or, for an
// instance with a cooldown (explicit via Use, or the resource's
// DefaultDelay), schedules it to become available at that instant
// instead. Idempotent and safe to call from any goroutine.
func (l *Lease) Release() {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	held := l.held
	releaseAt := l.releaseAt
	l.held = nil
	l.mu.Unlock()

	l.mgr.mu.Lock()
	for t, inst := range held {
		if inst.removed {
			continue
		}
		at, explicit := releaseAt[t]
		if !explicit && inst.resource.DefaultDelay > 0 {
			at = time.Now().Add(inst.resource.DefaultDelay)
			explicit = true
		}
		if explicit && at.After(time.Now()) {
			d := time.Until(at)
			mgr, typ, ins := l.mgr, t, inst
			time.AfterFunc(d, func() { mgr.reinstate(typ, ins) })
			continue
		}
		l.mgr.pools[t] = append(l.mgr.pools[t], inst)
	}
	l.mgr.cond.Broadcast()
	l.mgr.mu.Unlock()
}

func (m *Manager) reinstate(resourceType string, inst *instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst.removed {
		return
	}
	m.pools[resourceType] = append(m.pools[resourceType], inst)
	m.cond.Broadcast()
}
