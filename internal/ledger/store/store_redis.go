package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"finwell/internal/ledger"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

const (
	// Redis key prefix for live entries; value is
	// "<hex key>|<unix nanos>[|<hex handle>]".
	entryKeyPrefix = "ledger:req:"
	// Set of retired request ids.
	retiredKey = "ledger:retired"
	// Sorted set of live request ids scored by registration time.
	pendingKey = "ledger:pending"
)

// insertScript refuses retired ids, then sets the entry only if absent.
var insertScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
	return 0
end
if redis.call('SET', KEYS[1], ARGV[2], 'NX') then
	redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
	return 1
end
return 0
`)

// retireScript moves a live entry to the retired set.
var retireScript = redis.NewScript(`
if redis.call('DEL', KEYS[1]) == 1 then
	redis.call('SADD', KEYS[2], ARGV[1])
	redis.call('ZREM', KEYS[3], ARGV[1])
	return 1
end
return 0
`)

// RedisStore is a Redis-backed ledger shared by every service instance.
// Insert and Retire run as Lua scripts, so concurrent callers agree on a
// single winner.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func entryKey(requestID id.RequestID) string {
	return entryKeyPrefix + requestID.String()
}

func encodeValue(rec ledger.Record) string {
	value := rec.Key.String() + "|" + strconv.FormatInt(rec.RegisteredAt.UnixNano(), 10)
	if !rec.Handle.IsNil() {
		value += "|" + rec.Handle.String()
	}
	return value
}

func decodeValue(requestID id.RequestID, raw string) (*ledger.Record, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, fmt.Errorf("malformed ledger entry %s", requestID)
	}
	key, err := ledger.ParseKey(parts[0])
	if err != nil {
		return nil, fmt.Errorf("malformed ledger key for %s: %w", requestID, err)
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed ledger time for %s: %w", requestID, err)
	}
	rec := &ledger.Record{RequestID: requestID, Key: key, RegisteredAt: time.Unix(0, nanos).UTC()}
	if len(parts) == 3 {
		if rec.Handle, err = id.ParseHandle(parts[2]); err != nil {
			return nil, fmt.Errorf("malformed ledger handle for %s: %w", requestID, err)
		}
	}
	return rec, nil
}

func (s *RedisStore) Insert(ctx context.Context, rec ledger.Record) error {
	ok, err := insertScript.Run(ctx, s.client,
		[]string{entryKey(rec.RequestID), retiredKey, pendingKey},
		rec.RequestID.String(), encodeValue(rec), rec.RegisteredAt.UnixNano(),
	).Int()
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	if ok == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, requestID id.RequestID) (*ledger.Record, error) {
	raw, err := s.client.Get(ctx, entryKey(requestID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return decodeValue(requestID, raw)
}

func (s *RedisStore) Retire(ctx context.Context, requestID id.RequestID) error {
	ok, err := retireScript.Run(ctx, s.client,
		[]string{entryKey(requestID), retiredKey, pendingKey},
		requestID.String(),
	).Int()
	if err != nil {
		return fmt.Errorf("retire ledger entry: %w", err)
	}
	if ok == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RedisStore) Pending(ctx context.Context) ([]ledger.Record, error) {
	return s.rangeByScore(ctx, "+inf")
}

func (s *RedisStore) rangeByScore(ctx context.Context, max string) ([]ledger.Record, error) {
	ids, err := s.client.ZRangeByScore(ctx, pendingKey, &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending ledger entries: %w", err)
	}
	out := make([]ledger.Record, 0, len(ids))
	for _, raw := range ids {
		requestID, err := id.ParseRequestID(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed pending request id %q: %w", raw, err)
		}
		rec, err := s.Get(ctx, requestID)
		if errors.Is(err, sentinel.ErrNotFound) {
			// retired between the range read and the lookup
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	sortByRequestID(out)
	return out, nil
}

func (s *RedisStore) RetireBefore(ctx context.Context, cutoff time.Time) ([]ledger.Record, error) {
	// exclusive upper bound: strictly before cutoff
	candidates, err := s.rangeByScore(ctx, "("+strconv.FormatInt(cutoff.UnixNano(), 10))
	if err != nil {
		return nil, err
	}
	var out []ledger.Record
	for _, rec := range candidates {
		err := s.Retire(ctx, rec.RequestID)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
