package controlplane

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saturn-sh/saturn/internal/staticdefs"
	"github.com/saturn-sh/saturn/pkg/log"
	"github.com/saturn-sh/saturn/pkg/types"
)

// Server is the reference control-plane HTTP surface: one endpoint,
// POST /api/lock, following the teacher's pkg/api.Server shape (a
// struct wrapping a store) with net/http instead of gRPC.
type Server struct {
	logger     zerolog.Logger
	store      *Store
	staticDefs *staticdefs.Definitions
	mux        *http.ServeMux
}

// NewServer builds a Server backed by store, resolving missing
// resources against staticDefs.
func NewServer(store *Store, staticDefs *staticdefs.Definitions) *Server {
	s := &Server{
		logger:     log.WithComponent("controlplane"),
		store:      store,
		staticDefs: staticDefs,
		mux:        http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/lock", s.handleLock)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.LockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.WorkerID == "" {
		http.Error(w, "worker_id is required", http.StatusBadRequest)
		return
	}

	resp, err := s.lock(req.WorkerID)
	if err != nil {
		s.logger.Error().Err(err).Str("worker_id", req.WorkerID).Msg("lock failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// RegisterQueue exposes Store.RegisterQueue for administrative seeding
// of queues this control plane can assign.
func (s *Server) RegisterQueue(item types.QueueItem) error {
	return s.store.RegisterQueue(item)
}
