package oracle

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	id "finwell/pkg/domain"
)

// RequestIDSource issues oracle request ids. Ids start at 1 and are never
// reissued, even across restarts when backed by Redis.
type RequestIDSource interface {
	Next(ctx context.Context) (id.RequestID, error)
}

// AtomicSource is a process-local counter.
type AtomicSource struct {
	last atomic.Uint64
}

// NewAtomicSource starts issuing at start+1.
func NewAtomicSource(start uint64) *AtomicSource {
	s := &AtomicSource{}
	s.last.Store(start)
	return s
}

func (s *AtomicSource) Next(context.Context) (id.RequestID, error) {
	return id.RequestID(s.last.Add(1)), nil
}

const requestSeqKey = "oracle:request_seq"

// RedisSource issues ids with INCR on a shared key.
type RedisSource struct {
	client *redis.Client
}

func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

func (s *RedisSource) Next(ctx context.Context) (id.RequestID, error) {
	n, err := s.client.Incr(ctx, requestSeqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("issue request id: %w", err)
	}
	return id.RequestID(n), nil
}
