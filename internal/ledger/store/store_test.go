package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"finwell/internal/ledger"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	base  time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) record(requestID id.RequestID, at time.Time) ledger.Record {
	key, err := ledger.Encode(ledger.RecordTarget(id.RecordID(requestID)))
	s.Require().NoError(err)
	return ledger.Record{RequestID: requestID, Key: key, RegisteredAt: at}
}

func (s *InMemoryStoreSuite) TestInsertGetRetire() {
	ctx := context.Background()
	rec := s.record(42, s.base)

	s.Require().NoError(s.store.Insert(ctx, rec))

	got, err := s.store.Get(ctx, 42)
	s.Require().NoError(err)
	s.Equal(rec, *got)

	s.Run("live id cannot be inserted twice", func() {
		err := s.store.Insert(ctx, s.record(42, s.base))
		s.True(errors.Is(err, sentinel.ErrAlreadyUsed))
	})

	s.Require().NoError(s.store.Retire(ctx, 42))

	s.Run("retired id is gone", func() {
		_, err := s.store.Get(ctx, 42)
		s.True(errors.Is(err, sentinel.ErrNotFound))
		s.True(errors.Is(s.store.Retire(ctx, 42), sentinel.ErrNotFound))
	})

	s.Run("retired id cannot be registered again", func() {
		err := s.store.Insert(ctx, s.record(42, s.base))
		s.True(errors.Is(err, sentinel.ErrAlreadyUsed))
	})
}

func (s *InMemoryStoreSuite) TestConcurrentInsertHasOneWinner() {
	ctx := context.Background()
	const goroutines = 32
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.store.Insert(ctx, s.record(7, s.base)) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *InMemoryStoreSuite) TestPendingAndRetireBefore() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.record(3, s.base.Add(3*time.Minute))))
	s.Require().NoError(s.store.Insert(ctx, s.record(1, s.base.Add(1*time.Minute))))
	s.Require().NoError(s.store.Insert(ctx, s.record(2, s.base.Add(2*time.Minute))))

	pending, err := s.store.Pending(ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 3)
	s.Equal(id.RequestID(1), pending[0].RequestID)

	expired, err := s.store.RetireBefore(ctx, s.base.Add(2*time.Minute))
	s.Require().NoError(err)
	s.Require().Len(expired, 1, "cutoff is exclusive")
	s.Equal(id.RequestID(1), expired[0].RequestID)

	pending, err = s.store.Pending(ctx)
	s.Require().NoError(err)
	s.Len(pending, 2)
	s.True(errors.Is(s.store.Insert(ctx, s.record(1, s.base)), sentinel.ErrAlreadyUsed))
}
