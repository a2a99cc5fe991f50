package monitor

import (
	"context"
	"sync"
)

// MemoryStore is an in-process StatsStore. It backs single-process
// deployments and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	ops  map[string]OperationCounts
	errs map[string]int64
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ops:  make(map[string]OperationCounts),
		errs: make(map[string]int64),
	}
}

func (s *MemoryStore) IncrOperation(_ context.Context, operation string, success bool, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.ops[operation]
	c.Total++
	if success {
		c.Success++
	} else {
		c.Failed++
	}
	c.TotalSizeBytes += size
	s.ops[operation] = c
	return nil
}

func (s *MemoryStore) IncrError(_ context.Context, errType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[errType]++
	return nil
}

func (s *MemoryStore) OperationCounts(_ context.Context) (map[string]OperationCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]OperationCounts, len(s.ops))
	for k, v := range s.ops {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) ErrorCounts(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int64, len(s.errs))
	for k, v := range s.errs {
		out[k] = v
	}
	return out, nil
}
