package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"finwell/internal/ratelimit"
)

// slidingWindowScript keeps one sorted-set member per admitted request,
// scored by its arrival time in milliseconds. It returns
// {allowed, count, oldest score}.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local limit = tonumber(ARGV[4])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
local allowed = 0
if count + cost <= limit then
	for i = 1, cost do
		redis.call('ZADD', KEYS[1], now, ARGV[5] .. ':' .. i)
	end
	count = count + cost
	allowed = 1
end
redis.call('PEXPIRE', KEYS[1], window)
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local first = now
if oldest[2] then
	first = tonumber(oldest[2])
end
return {allowed, count, first}
`)

// RedisStore shares sliding windows between service instances.
type RedisStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, clock: time.Now}
}

func (s *RedisStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*ratelimit.Result, error) {
	now := s.clock()
	raw, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(), window.Milliseconds(), cost, limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("rate limit %s: unexpected reply %v", key, raw)
	}

	resetAt := time.UnixMilli(raw[2]).Add(window)
	res := &ratelimit.Result{
		Allowed: raw[0] == 1,
		Limit:   limit,
		ResetAt: resetAt,
	}
	if res.Allowed {
		res.Remaining = limit - int(raw[1])
	} else {
		res.RetryAfter = retryAfter(now, resetAt)
	}
	return res, nil
}

// Reset clears the counter for a key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset rate limit %s: %w", key, err)
	}
	return nil
}

var (
	_ ratelimit.Store = (*RedisStore)(nil)
	_ ratelimit.Store = (*InMemory)(nil)
)
