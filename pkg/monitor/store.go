package monitor

import "context"

// OperationCounts are the persisted running totals for one operation
// type.
type OperationCounts struct {
	Total          int64 `json:"total"`
	Success        int64 `json:"success"`
	Failed         int64 `json:"failed"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// StatsStore persists operation and error counters outside process
// memory so statistics survive restarts and can be shared between
// processes. Implementations must be safe for concurrent use.
type StatsStore interface {
	IncrOperation(ctx context.Context, operation string, success bool, size int64) error
	IncrError(ctx context.Context, errType string) error
	OperationCounts(ctx context.Context) (map[string]OperationCounts, error)
	ErrorCounts(ctx context.Context) (map[string]int64, error)
}
