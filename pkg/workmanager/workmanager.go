package workmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saturn-sh/saturn/pkg/log"
	"github.com/saturn-sh/saturn/pkg/types"
)

// Diff is an (add, drop) pair for one kind of assignment.
type Diff[T any] struct {
	Add  []T
	Drop []T
}

// WorkSync is the three-part diff spec.md's GLOSSARY describes,
// produced by one control-plane reconciliation.
type WorkSync struct {
	Queues    Diff[types.QueueItem]
	Tasks     Diff[types.TaskItem]
	Resources Diff[types.Resource]
}

// Manager is the WorkManager of spec.md §4.2.
type Manager struct {
	logger          zerolog.Logger
	client          *http.Client
	controlPlaneURL string
	workerID        string

	mu        sync.Mutex
	queues    map[string]types.QueueItem
	tasks     map[string]types.TaskItem
	resources map[string]types.Resource
}

// New creates a Manager that syncs against controlPlaneURL as workerID.
// A nil client defaults to http.DefaultClient.
func New(controlPlaneURL, workerID string, client *http.Client) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	return &Manager{
		logger:          log.WithComponent("workmanager"),
		client:          client,
		controlPlaneURL: controlPlaneURL,
		workerID:        workerID,
		queues:          make(map[string]types.QueueItem),
		tasks:           make(map[string]types.TaskItem),
		resources:       make(map[string]types.Resource),
	}
}

// Sync calls POST /api/lock and diffs the response against the
// locally tracked working set. The returned WorkSync is also the new
// baseline for the next call.
func (m *Manager) Sync(ctx context.Context) (WorkSync, error) {
	resp, err := m.lock(ctx)
	if err != nil {
		return WorkSync{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var ws WorkSync
	ws.Queues.Add, ws.Queues.Drop, m.queues = diff(m.queues, resp.Items, func(q types.QueueItem) string { return q.Name })
	ws.Tasks.Add, ws.Tasks.Drop, m.tasks = diff(m.tasks, resp.Tasks, func(t types.TaskItem) string { return t.Name })
	ws.Resources.Add, ws.Resources.Drop, m.resources = diff(m.resources, resp.Resources, func(r types.Resource) string { return r.Type + "/" + r.Name })

	return ws, nil
}

func (m *Manager) lock(ctx context.Context) (types.LockResponse, error) {
	body, err := json.Marshal(types.LockRequest{WorkerID: m.workerID})
	if err != nil {
		return types.LockResponse{}, fmt.Errorf("workmanager: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.controlPlaneURL+"/api/lock", bytes.NewReader(body))
	if err != nil {
		return types.LockResponse{}, fmt.Errorf("workmanager: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := m.client.Do(req)
	if err != nil {
		return types.LockResponse{}, fmt.Errorf("workmanager: sync request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return types.LockResponse{}, fmt.Errorf("workmanager: sync returned status %d", httpResp.StatusCode)
	}

	var resp types.LockResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return types.LockResponse{}, fmt.Errorf("workmanager: decode response: %w", err)
	}
	return resp, nil
}

// diff computes adds/drops of newItems against old, keyed by key, and
// returns the new baseline map.
func diff[T any](old map[string]T, newItems []T, key func(T) string) (add, drop []T, newMap map[string]T) {
	newMap = make(map[string]T, len(newItems))
	for _, item := range newItems {
		newMap[key(item)] = item
	}
	for k, item := range newMap {
		if _, existed := old[k]; !existed {
			add = append(add, item)
		}
	}
	for k, item := range old {
		if _, still := newMap[k]; !still {
			drop = append(drop, item)
		}
	}
	return add, drop, newMap
}

// Run calls Sync on interval until ctx is cancelled, invoking apply
// with each resulting WorkSync. Sync failures are logged and retried
// on the next tick; the previous working set remains authoritative.
func (m *Manager) Run(ctx context.Context, interval time.Duration, apply func(WorkSync)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	syncOnce := func() {
		ws, err := m.Sync(ctx)
		if err != nil {
			m.logger.Warn().Err(err).Msg("sync failed, retrying next tick")
			return
		}
		apply(ws)
	}

	syncOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncOnce()
		}
	}
}
