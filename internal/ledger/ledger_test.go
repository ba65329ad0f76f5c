package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"finwell/internal/ledger"
	"finwell/internal/ledger/store"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

type LedgerSuite struct {
	suite.Suite
	ledger *ledger.Ledger
	now    time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ledger = ledger.New(store.NewInMemory())
	s.now = time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
}

var (
	owner = id.Identity{0x0a, 0x0b}
	sent  = id.Handle{0xc0, 0xde}
)

func (s *LedgerSuite) TestRegisterResolveRetire() {
	ctx := context.Background()
	target := ledger.ScoreTarget(owner, ledger.FieldImprovement)

	s.Require().NoError(s.ledger.Register(ctx, 42, target, sent, s.now))

	entry, err := s.ledger.Resolve(ctx, 42)
	s.Require().NoError(err)
	s.Equal(target, entry.Target)
	s.Equal(s.now, entry.RegisteredAt)
	s.Equal(sent, entry.Handle)

	s.Run("resolve does not consume", func() {
		_, err := s.ledger.Resolve(ctx, 42)
		s.NoError(err)
	})

	s.Require().NoError(s.ledger.Retire(ctx, 42))

	s.Run("retired id is unknown", func() {
		_, err := s.ledger.Resolve(ctx, 42)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("retired id cannot be resurrected", func() {
		err := s.ledger.Register(ctx, 42, ledger.RecordTarget(1), id.Handle{}, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *LedgerSuite) TestRegisterErrors() {
	ctx := context.Background()

	s.Run("duplicate live request", func() {
		s.Require().NoError(s.ledger.Register(ctx, 7, ledger.RecordTarget(1), id.Handle{}, s.now))
		err := s.ledger.Register(ctx, 7, ledger.RecordTarget(2), id.Handle{}, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		entry, err := s.ledger.Resolve(ctx, 7)
		s.Require().NoError(err)
		s.Equal(ledger.RecordTarget(1), entry.Target, "first registration wins")
	})

	s.Run("request id zero", func() {
		err := s.ledger.Register(ctx, 0, ledger.RecordTarget(1), id.Handle{}, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		_, err = s.ledger.Resolve(ctx, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("invalid target", func() {
		err := s.ledger.Register(ctx, 8, ledger.ScoreTarget(owner, 9), id.Handle{}, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown request", func() {
		_, err := s.ledger.Resolve(ctx, 999)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.True(dErrors.HasCode(s.ledger.Retire(ctx, 999), dErrors.CodeNotFound))
	})
}

func (s *LedgerSuite) TestExpireBefore() {
	ctx := context.Background()
	s.Require().NoError(s.ledger.Register(ctx, 1, ledger.RecordTarget(1), id.Handle{}, s.now.Add(-2*time.Hour)))
	s.Require().NoError(s.ledger.Register(ctx, 2, ledger.RecordTarget(2), id.Handle{}, s.now))

	expired, err := s.ledger.ExpireBefore(ctx, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(ledger.RecordTarget(1), expired[0].Target)

	pending, err := s.ledger.Pending(ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(id.RequestID(2), pending[0].RequestID)

	_, err = s.ledger.Resolve(ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// failingStore reports the first retired record and then an error, like a
// shared store losing its connection midway through a sweep.
type failingStore struct {
	*store.InMemory
}

func (f failingStore) RetireBefore(ctx context.Context, cutoff time.Time) ([]ledger.Record, error) {
	recs, err := f.InMemory.RetireBefore(ctx, cutoff)
	if err != nil || len(recs) < 2 {
		return recs, err
	}
	return recs[:1], errors.New("connection reset")
}

func (s *LedgerSuite) TestExpireBeforePartialFailure() {
	ctx := context.Background()
	l := ledger.New(failingStore{store.NewInMemory()})
	s.Require().NoError(l.Register(ctx, 1, ledger.RecordTarget(1), id.Handle{}, s.now.Add(-3*time.Hour)))
	s.Require().NoError(l.Register(ctx, 2, ledger.RecordTarget(2), id.Handle{}, s.now.Add(-2*time.Hour)))

	expired, err := l.ExpireBefore(ctx, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Require().Len(expired, 1, "already retired entries are still reported")
	s.Equal(id.RequestID(1), expired[0].RequestID)
}
