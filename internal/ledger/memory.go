package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DefaultMemoryCapacity is the number of runs a MemoryStore keeps.
const DefaultMemoryCapacity = 1000

// MemoryStore keeps the most recent runs in process memory.
// Oldest runs are evicted once capacity is reached.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[uuid.UUID]Run
	order    []uuid.UUID // insertion order, oldest first
	capacity int
}

// NewMemoryStore creates a MemoryStore holding at most capacity runs
// (DefaultMemoryCapacity when capacity <= 0).
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		runs:     make(map[uuid.UUID]Run),
		capacity: capacity,
	}
}

func (s *MemoryStore) Record(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run

	for len(s.order) > s.capacity {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() {}
