//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"finwell/internal/ratelimit/store"
	"finwell/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestLimitAndReset() {
	ctx := context.Background()

	for i := range 2 {
		res, err := s.store.AllowN(ctx, "ratelimit:decryption:alice", 1, 2, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(1-i, res.Remaining)
	}

	res, err := s.store.AllowN(ctx, "ratelimit:decryption:alice", 1, 2, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)
	s.LessOrEqual(res.RetryAfter, 60)

	res, err = s.store.AllowN(ctx, "ratelimit:decryption:bob", 1, 2, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)

	s.Require().NoError(s.store.Reset(ctx, "ratelimit:decryption:alice"))
	res, err = s.store.AllowN(ctx, "ratelimit:decryption:alice", 1, 2, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisStoreSuite) TestConcurrentCallersShareBudget() {
	ctx := context.Background()
	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.AllowN(ctx, "ratelimit:write:shared", 1, 7, time.Minute)
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(7), allowed.Load())
}
