package monitor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the monitor's keys in Redis.
const DefaultRedisPrefix = "mediakit:filestats"

// RedisStore persists operation and error counters in Redis so
// multiple processes share one statistics view. Counters are stored as
// hashes under a configurable key prefix.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix overrides the key prefix. Empty prefixes are ignored.
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a counter store over an established Redis
// connection.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) opsIndexKey() string { return s.prefix + ":ops" }

func (s *RedisStore) opKey(operation string) string { return s.prefix + ":ops:" + operation }

func (s *RedisStore) errorsKey() string { return s.prefix + ":errors" }

func (s *RedisStore) IncrOperation(ctx context.Context, operation string, success bool, size int64) error {
	key := s.opKey(operation)
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.opsIndexKey(), operation)
	pipe.HIncrBy(ctx, key, "total", 1)
	if success {
		pipe.HIncrBy(ctx, key, "success", 1)
	} else {
		pipe.HIncrBy(ctx, key, "failed", 1)
	}
	pipe.HIncrBy(ctx, key, "bytes", size)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("incr operation counters: %w", err)
	}
	return nil
}

func (s *RedisStore) IncrError(ctx context.Context, errType string) error {
	if err := s.client.HIncrBy(ctx, s.errorsKey(), errType, 1).Err(); err != nil {
		return fmt.Errorf("incr error counter: %w", err)
	}
	return nil
}

func (s *RedisStore) OperationCounts(ctx context.Context) (map[string]OperationCounts, error) {
	operations, err := s.client.SMembers(ctx, s.opsIndexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list operation types: %w", err)
	}

	out := make(map[string]OperationCounts, len(operations))
	for _, op := range operations {
		fields, err := s.client.HGetAll(ctx, s.opKey(op)).Result()
		if err != nil {
			return nil, fmt.Errorf("read counters for %s: %w", op, err)
		}
		out[op] = OperationCounts{
			Total:          parseCounter(fields["total"]),
			Success:        parseCounter(fields["success"]),
			Failed:         parseCounter(fields["failed"]),
			TotalSizeBytes: parseCounter(fields["bytes"]),
		}
	}
	return out, nil
}

func (s *RedisStore) ErrorCounts(ctx context.Context) (map[string]int64, error) {
	fields, err := s.client.HGetAll(ctx, s.errorsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read error counters: %w", err)
	}

	out := make(map[string]int64, len(fields))
	for k, v := range fields {
		out[k] = parseCounter(v)
	}
	return out, nil
}

func parseCounter(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}
