package controlplane

import (
	"sort"
	"time"

	"github.com/saturn-sh/saturn/pkg/types"
)

// Default assignment policy constants, grounded on
// worker_manager/api/lock.py's post_lock.
const (
	maxAssignedItems = 10
	assignmentCutoff = 15 * time.Minute
)

// lock implements post_lock's policy: obtain this worker's already-
// assigned items, unassign whatever is beyond maxAssignedItems,
// backfill from the unassigned pool, refresh assignment timestamps,
// then resolve static resources for every assigned pipeline's declared
// resource types.
func (s *Server) lock(workerID string) (types.LockResponse, error) {
	now := time.Now()
	cutoff := now.Add(-assignmentCutoff)

	all, err := s.store.allAssignments()
	if err != nil {
		return types.LockResponse{}, err
	}

	var assigned, unassigned []assignment
	for _, a := range all {
		if a.AssignedTo == workerID && a.AssignedAt.After(cutoff) {
			assigned = append(assigned, a)
		} else if a.AssignedTo == "" || !a.AssignedAt.After(cutoff) {
			unassigned = append(unassigned, a)
		}
	}

	// Unassign extra items beyond maxAssignedItems.
	var released []assignment
	for i := maxAssignedItems; i < len(assigned); i++ {
		assigned[i].AssignedTo = ""
		assigned[i].AssignedAt = time.Time{}
		unassigned = append(unassigned, assigned[i])
		released = append(released, assigned[i])
	}
	if len(assigned) > maxAssignedItems {
		assigned = assigned[:maxAssignedItems]
	}

	// Backfill from the unassigned pool.
	sort.Slice(unassigned, func(i, j int) bool { return unassigned[i].Item.Name < unassigned[j].Item.Name })
	need := maxAssignedItems - len(assigned)
	for i := 0; i < need && i < len(unassigned); i++ {
		assigned = append(assigned, unassigned[i])
	}

	// Refresh assignments.
	for i := range assigned {
		assigned[i].AssignedTo = workerID
		assigned[i].AssignedAt = now
	}

	if err := s.store.saveAssignments(append(assigned[:len(assigned):len(assigned)], released...)); err != nil {
		return types.LockResponse{}, err
	}

	items := make([]types.QueueItem, 0, len(assigned))
	resourcesByName := make(map[string]types.Resource)
	for _, a := range assigned {
		items = append(items, a.Item)
		for _, resourceType := range a.Item.Pipeline.ResourceTypes {
			for _, r := range s.staticDefs.ResourcesForType(resourceType) {
				resourcesByName[r.Name] = r
			}
			if len(s.staticDefs.ResourcesForType(resourceType)) == 0 {
				s.logger.Warn().Str("pipeline", a.Item.Name).Str("resource", resourceType).Msg("pipeline resource missing")
			}
		}
	}

	resources := make([]types.Resource, 0, len(resourcesByName))
	for _, r := range resourcesByName {
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })

	return types.LockResponse{Items: items, Resources: resources}, nil
}
