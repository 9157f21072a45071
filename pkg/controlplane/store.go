package controlplane

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/saturn-sh/saturn/pkg/types"
)

var bucketQueues = []byte("queues")

// assignment is the persisted record for one registered queue: its
// spec plus the worker it is currently leased to, if any.
type assignment struct {
	Item       types.QueueItem `json:"item"`
	AssignedTo string          `json:"assigned_to,omitempty"`
	AssignedAt time.Time       `json:"assigned_at,omitempty"`
}

// Store is the control plane's own persistence, bbolt-backed with one
// bucket per entity kind, following the teacher's pkg/storage
// convention.
type Store struct {
	db *bolt.DB
}

// NewStore opens (creating if needed) a bbolt database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "saturn-controlplane.db")

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("controlplane: open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketQueues)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("controlplane: create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// RegisterQueue adds a queue definition, or replaces the definition of
// an existing queue while keeping its current assignment — the
// administrative counterpart to a worker's sync, used to seed
// queues this control plane can hand out.
func (s *Store) RegisterQueue(item types.QueueItem) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketQueues)
		existing := b.Get([]byte(item.Name))

		a := assignment{Item: item}
		if existing != nil {
			var prev assignment
			if err := json.Unmarshal(existing, &prev); err == nil {
				a.AssignedTo = prev.AssignedTo
				a.AssignedAt = prev.AssignedAt
			}
		}

		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return b.Put([]byte(item.Name), data)
	})
}

// allAssignments returns every registered queue's assignment record.
func (s *Store) allAssignments() ([]assignment, error) {
	var out []assignment
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketQueues)
		return b.ForEach(func(_, v []byte) error {
			var a assignment
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	})
	return out, err
}

// saveAssignments persists every given assignment, keyed by queue
// name, in one transaction.
func (s *Store) saveAssignments(items []assignment) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketQueues)
		for _, a := range items {
			data, err := json.Marshal(a)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(a.Item.Name), data); err != nil {
				return err
			}
		}
		return nil
	})
}
