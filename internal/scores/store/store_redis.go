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
	"finwell/internal/scores"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

const (
	scoreKeyPrefix = "score:"

	fieldFinancial    = "financial"
	fieldRisk         = "risk"
	fieldImprovement  = "improvement"
	fieldSource       = "source"
	fieldCalculatedAt = "calculated_at"
	// Revealed plaintexts are stored as "revealed:<field number>".
	revealedPrefix = "revealed:"
)

// revealScript writes a revealed value only while the score exists and the
// field still holds the decrypted handle. Returns 0 when the score is
// missing, -1 when the field was replaced.
var revealScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if redis.call('HGET', KEYS[1], ARGV[1]) ~= ARGV[2] then
	return -1
end
redis.call('HSET', KEYS[1], ARGV[3], ARGV[4])
return 1
`)

// RedisStore keeps one hash per owner.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func scoreKey(owner id.Identity) string {
	return scoreKeyPrefix + strings.ToLower(owner.String())
}

// Submit replaces the owner's hash in a single MULTI so revealed fields of the
// previous score never survive an overwrite.
func (s *RedisStore) Submit(ctx context.Context, sub scores.Submission, now time.Time) error {
	key := scoreKey(sub.Owner)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldFinancial, sub.Financial.String(),
			fieldRisk, sub.Risk.String(),
			fieldImprovement, sub.Improvement.String(),
			fieldSource, strconv.FormatUint(uint64(sub.SourceRecord), 10),
			fieldCalculatedAt, strconv.FormatInt(now.UnixNano(), 10),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("submit score: %w", err)
	}
	return nil
}

func (s *RedisStore) HasScore(ctx context.Context, owner id.Identity) (bool, error) {
	_, err := s.Get(ctx, owner)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Get(ctx context.Context, owner id.Identity) (*scores.WellnessScore, error) {
	raw, err := s.client.HGetAll(ctx, scoreKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}
	if len(raw) == 0 {
		return nil, sentinel.ErrNotFound
	}
	score, err := decodeScore(owner, raw)
	if err != nil {
		return nil, err
	}
	if !score.Present() {
		return nil, sentinel.ErrNotFound
	}
	return score, nil
}

func handleField(field ledger.Field) (string, bool) {
	switch field {
	case ledger.FieldFinancial:
		return fieldFinancial, true
	case ledger.FieldRisk:
		return fieldRisk, true
	case ledger.FieldImprovement:
		return fieldImprovement, true
	default:
		return "", false
	}
}

// RecordReveal stores value for field only while the field still holds handle.
func (s *RedisStore) RecordReveal(ctx context.Context, owner id.Identity, field ledger.Field, handle id.Handle, value int64) error {
	name, ok := handleField(field)
	if !ok {
		return sentinel.ErrInvalidState
	}
	applied, err := revealScript.Run(ctx, s.client,
		[]string{scoreKey(owner)},
		name, handle.String(),
		revealedPrefix+strconv.Itoa(int(field)), strconv.FormatInt(value, 10),
	).Int()
	if err != nil {
		return fmt.Errorf("record score reveal: %w", err)
	}
	switch applied {
	case 0:
		return sentinel.ErrNotFound
	case -1:
		return sentinel.ErrInvalidState
	}
	return nil
}

func decodeScore(owner id.Identity, raw map[string]string) (*scores.WellnessScore, error) {
	score := &scores.WellnessScore{Owner: owner, Revealed: map[ledger.Field]int64{}}
	var err error
	if score.Financial, err = id.ParseHandle(raw[fieldFinancial]); err != nil {
		return nil, fmt.Errorf("decode financial handle: %w", err)
	}
	if score.Risk, err = id.ParseHandle(raw[fieldRisk]); err != nil {
		return nil, fmt.Errorf("decode risk handle: %w", err)
	}
	if score.Improvement, err = id.ParseHandle(raw[fieldImprovement]); err != nil {
		return nil, fmt.Errorf("decode improvement handle: %w", err)
	}
	source, err := strconv.ParseUint(raw[fieldSource], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode source record: %w", err)
	}
	score.SourceRecord = id.RecordID(source)
	nanos, err := strconv.ParseInt(raw[fieldCalculatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode calculated_at: %w", err)
	}
	score.CalculatedAt = time.Unix(0, nanos).UTC()

	for k, v := range raw {
		rest, ok := strings.CutPrefix(k, revealedPrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || !ledger.Field(n).IsValid() {
			return nil, fmt.Errorf("decode revealed field %q", k)
		}
		value, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode revealed value %q: %w", k, err)
		}
		score.Revealed[ledger.Field(n)] = value
	}
	return score, nil
}
