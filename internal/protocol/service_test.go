package protocol

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"finwell/internal/events"
	"finwell/internal/ledger"
	ledgerstore "finwell/internal/ledger/store"
	"finwell/internal/oracle"
	"finwell/internal/oracle/mocks"
	recordstore "finwell/internal/records/store"
	"finwell/internal/scores"
	scorestore "finwell/internal/scores/store"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

const testSignerKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	oracle   *mocks.MockOracle
	records  *recordstore.InMemory
	scores   *scorestore.InMemory
	ledger   *ledger.Ledger
	recorder *events.Recorder
	signer   *oracle.Signer
	service  *Service
	now      time.Time
	seed     byte

	owner    Caller
	stranger Caller
	operator Caller
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.oracle = mocks.NewMockOracle(s.ctrl)
	s.records = recordstore.NewInMemory()
	s.scores = scorestore.NewInMemory()
	s.ledger = ledger.New(ledgerstore.NewInMemory())
	s.recorder = events.NewRecorder()
	s.now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	signer, err := oracle.NewSigner(testSignerKey)
	s.Require().NoError(err)
	s.signer = signer

	s.owner = Caller{Identity: id.Identity{0x01}}
	s.stranger = Caller{Identity: id.Identity{0x02}}
	s.operator = Caller{Identity: id.Identity{0x03}, Operator: true}

	s.service = New(s.records, s.scores, s.ledger, s.oracle,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithPublisher(s.recorder),
		WithOwnershipEnforcement(true),
		WithClock(func() time.Time { return s.now }),
	)

	verifier := oracle.NewVerifier(signer.Address())
	s.oracle.EXPECT().IsInitialized(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, h id.Handle) bool { return !h.IsNil() }).AnyTimes()
	s.oracle.EXPECT().CheckSignatures(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, requestID id.RequestID, cleartexts, proof []byte) error {
			return verifier.Verify(requestID, cleartexts, proof)
		}).AnyTimes()
}

func handles(seed byte) (id.Handle, id.Handle, id.Handle) {
	return id.Handle{seed, 1}, id.Handle{seed, 2}, id.Handle{seed, 3}
}

func (s *ServiceSuite) submit(caller Caller) id.RecordID {
	s.seed++
	income, expenses, savings := handles(s.seed)
	recordID, err := s.service.Submit(context.Background(), caller, income, expenses, savings)
	s.Require().NoError(err)
	return recordID
}

func (s *ServiceSuite) expectOracleRequest(requestID id.RequestID, kind oracle.CallbackKind) {
	s.oracle.EXPECT().RequestDecryption(gomock.Any(), gomock.Any(), kind).Return(requestID, nil)
}

func (s *ServiceSuite) signed(requestID id.RequestID, values ...int64) ([]byte, []byte) {
	cleartexts := oracle.EncodeCleartexts(values...)
	proof, err := s.signer.Sign(requestID, cleartexts)
	s.Require().NoError(err)
	return cleartexts, proof
}

// =============================================================================
// Submit
// =============================================================================

func (s *ServiceSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("ids are sequential from one", func() {
		for want := id.RecordID(1); want <= 3; want++ {
			s.Equal(want, s.submit(s.owner))
		}
	})

	s.Run("stores owner and emits DataSubmitted", func() {
		recordID := s.submit(s.owner)
		rec, err := s.service.GetRecord(ctx, s.owner, recordID)
		s.Require().NoError(err)
		s.Equal(s.owner.Identity, rec.Owner)
		s.Equal(s.now, rec.SubmittedAt)

		submitted := s.recorder.Named(events.DataSubmitted)
		last := submitted[len(submitted)-1]
		s.Equal(recordID, last.RecordID)
		s.Equal(s.now, last.Timestamp)
	})

	s.Run("uninitialized handle is rejected", func() {
		income, expenses, _ := handles(9)
		_, err := s.service.Submit(ctx, s.owner, income, expenses, id.Handle{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("anonymous caller is rejected", func() {
		income, expenses, savings := handles(9)
		_, err := s.service.Submit(ctx, Caller{}, income, expenses, savings)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// =============================================================================
// Analysis
// =============================================================================

func (s *ServiceSuite) TestRequestAnalysis() {
	ctx := context.Background()
	recordID := s.submit(s.owner)

	s.Run("is repeatable and emits each time", func() {
		s.Require().NoError(s.service.RequestAnalysis(ctx, s.owner, recordID))
		s.Require().NoError(s.service.RequestAnalysis(ctx, s.owner, recordID))
		s.Len(s.recorder.Named(events.AnalysisRequested), 2)
	})

	s.Run("unknown record", func() {
		err := s.service.RequestAnalysis(ctx, s.owner, 99)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("other callers are forbidden, operators are not", func() {
		err := s.service.RequestAnalysis(ctx, s.stranger, recordID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.NoError(s.service.RequestAnalysis(ctx, s.operator, recordID))
	})

	s.Run("publish failure fails the request", func() {
		svc := New(s.records, s.scores, s.ledger, s.oracle,
			WithLogger(slog.New(slog.DiscardHandler)),
			WithPublisher(events.PublisherFunc(func(context.Context, events.Event) error {
				return io.ErrClosedPipe
			})),
		)
		err := svc.RequestAnalysis(ctx, s.owner, recordID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

// =============================================================================
// Record decryption
// =============================================================================

func (s *ServiceSuite) TestRecordDecryptionScenario() {
	ctx := context.Background()

	recordID := s.submit(s.owner)
	s.Require().Equal(id.RecordID(1), recordID)

	s.expectOracleRequest(42, oracle.CallbackRecord)
	requestID, err := s.service.RequestDecryption(ctx, s.owner, recordID)
	s.Require().NoError(err)
	s.Require().Equal(id.RequestID(42), requestID)

	cleartexts, proof := s.signed(42, 100, 50, 20)
	s.Require().NoError(s.service.CompleteDecryption(ctx, 42, cleartexts, proof))

	revealed, err := s.service.GetRevealed(ctx, s.owner, recordID)
	s.Require().NoError(err)
	s.Equal(int64(100), revealed.Income)
	s.Equal(int64(50), revealed.Expenses)
	s.Equal(int64(20), revealed.Savings)
	s.True(revealed.Revealed)
	s.Require().NotNil(revealed.RevealedAt)
	s.Len(s.recorder.Named(events.DataDecrypted), 1)

	s.Run("replayed completion fails and changes nothing", func() {
		other, otherProof := s.signed(42, 1, 2, 3)
		err := s.service.CompleteDecryption(ctx, 42, other, otherProof)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		again, err := s.service.GetRevealed(ctx, s.owner, recordID)
		s.Require().NoError(err)
		s.Equal(revealed, again)
		s.Len(s.recorder.Named(events.DataDecrypted), 1)
	})

	s.Run("new decryption request is refused", func() {
		_, err := s.service.RequestDecryption(ctx, s.owner, recordID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestSecondRequestAfterRevealFailsAlreadyRevealed() {
	ctx := context.Background()
	recordID := s.submit(s.owner)

	s.expectOracleRequest(7, oracle.CallbackRecord)
	s.expectOracleRequest(8, oracle.CallbackRecord)
	_, err := s.service.RequestDecryption(ctx, s.owner, recordID)
	s.Require().NoError(err)
	_, err = s.service.RequestDecryption(ctx, s.owner, recordID)
	s.Require().NoError(err)

	c7, p7 := s.signed(7, 10, 20, 30)
	s.Require().NoError(s.service.CompleteDecryption(ctx, 7, c7, p7))

	c8, p8 := s.signed(8, 11, 21, 31)
	err = s.service.CompleteDecryption(ctx, 8, c8, p8)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	revealed, err := s.service.GetRevealed(ctx, s.owner, recordID)
	s.Require().NoError(err)
	s.Equal(int64(10), revealed.Income, "first reveal is kept")
}

func (s *ServiceSuite) TestCompleteDecryptionRejections() {
	ctx := context.Background()
	recordID := s.submit(s.owner)
	s.expectOracleRequest(5, oracle.CallbackRecord)
	_, err := s.service.RequestDecryption(ctx, s.owner, recordID)
	s.Require().NoError(err)

	assertUntouched := func() {
		revealed, err := s.service.GetRevealed(ctx, s.owner, recordID)
		s.Require().NoError(err)
		s.False(revealed.Revealed)
		s.Zero(revealed.Income)
		_, err = s.ledger.Resolve(ctx, 5)
		s.NoError(err, "pending entry survives a rejected completion")
	}

	s.Run("unknown request", func() {
		cleartexts, proof := s.signed(6, 1, 2, 3)
		err := s.service.CompleteDecryption(ctx, 6, cleartexts, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		assertUntouched()
	})

	s.Run("forged proof", func() {
		cleartexts, _ := s.signed(5, 1, 2, 3)
		_, proof := s.signed(5, 9, 9, 9)
		err := s.service.CompleteDecryption(ctx, 5, cleartexts, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
		assertUntouched()
	})

	s.Run("proof for another request id", func() {
		cleartexts, proof := s.signed(4, 1, 2, 3)
		err := s.service.CompleteDecryption(ctx, 5, cleartexts, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
		assertUntouched()
	})

	s.Run("wrong cleartext count", func() {
		cleartexts, proof := s.signed(5, 1, 2)
		err := s.service.CompleteDecryption(ctx, 5, cleartexts, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedPayload))
		assertUntouched()
	})

	s.Run("score completion on a record request", func() {
		cleartexts, proof := s.signed(5, 1)
		err := s.service.CompleteScoreDecryption(ctx, 5, cleartexts, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))
		assertUntouched()
	})
}

func (s *ServiceSuite) TestRequestDecryptionErrors() {
	ctx := context.Background()

	s.Run("unknown record", func() {
		_, err := s.service.RequestDecryption(ctx, s.owner, 12)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("forbidden for other callers", func() {
		recordID := s.submit(s.owner)
		_, err := s.service.RequestDecryption(ctx, s.stranger, recordID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("oracle failure registers nothing", func() {
		recordID := s.submit(s.owner)
		s.oracle.EXPECT().RequestDecryption(gomock.Any(), gomock.Any(), oracle.CallbackRecord).
			Return(id.RequestID(0), io.ErrUnexpectedEOF)
		_, err := s.service.RequestDecryption(ctx, s.owner, recordID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		pending, err := s.ledger.Pending(ctx)
		s.Require().NoError(err)
		s.Empty(pending)
	})

	s.Run("oracle reusing a request id", func() {
		first := s.submit(s.owner)
		second := s.submit(s.owner)
		s.expectOracleRequest(77, oracle.CallbackRecord)
		s.expectOracleRequest(77, oracle.CallbackRecord)
		_, err := s.service.RequestDecryption(ctx, s.owner, first)
		s.Require().NoError(err)
		_, err = s.service.RequestDecryption(ctx, s.owner, second)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestOwnershipEnforcementDisabled() {
	ctx := context.Background()
	svc := New(s.records, s.scores, s.ledger, s.oracle, WithOwnershipEnforcement(false))
	recordID := s.submit(s.owner)

	s.expectOracleRequest(3, oracle.CallbackRecord)
	_, err := svc.RequestDecryption(ctx, s.stranger, recordID)
	s.NoError(err)
}

func (s *ServiceSuite) TestConfiguredOperator() {
	ctx := context.Background()
	admin := id.Identity{0xad}
	svc := New(s.records, s.scores, s.ledger, s.oracle,
		WithOwnershipEnforcement(true),
		WithOperators(admin),
	)
	recordID := s.submit(s.owner)
	_, err := svc.GetRevealed(ctx, Caller{Identity: admin}, recordID)
	s.NoError(err)
}

// =============================================================================
// Scores
// =============================================================================

func (s *ServiceSuite) submitScore(owner id.Identity) {
	financial, risk, improvement := handles(0xfe)
	s.Require().NoError(s.service.SubmitScore(context.Background(), scores.Submission{
		Owner:       owner,
		Financial:   financial,
		Risk:        risk,
		Improvement: improvement,
	}))
}

func (s *ServiceSuite) TestScoreDecryption() {
	ctx := context.Background()

	s.Run("no score available", func() {
		has, err := s.service.HasScore(ctx, s.owner.Identity)
		s.Require().NoError(err)
		s.False(has)
		_, err = s.service.RequestScoreDecryption(ctx, s.owner, s.owner.Identity, ledger.FieldRisk)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.submitScore(s.owner.Identity)
	calculated := s.recorder.Named(events.ScoreCalculated)
	s.Require().Len(calculated, 1)
	s.Equal(s.owner.Identity, *calculated[0].Owner, "keyed by owner")

	s.Run("every valid field can be requested", func() {
		for i, field := range ledger.Fields {
			requestID := id.RequestID(100 + i)
			s.expectOracleRequest(requestID, oracle.CallbackScore)
			got, err := s.service.RequestScoreDecryption(ctx, s.owner, s.owner.Identity, field)
			s.Require().NoError(err)
			s.Equal(requestID, got)
		}
	})

	s.Run("invalid field", func() {
		for _, field := range []ledger.Field{0, 4, 255} {
			_, err := s.service.RequestScoreDecryption(ctx, s.owner, s.owner.Identity, field)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "field %d", field)
		}
	})

	s.Run("completion records the revealed field", func() {
		cleartext, proof := s.signed(101, -12)
		s.Require().NoError(s.service.CompleteScoreDecryption(ctx, 101, cleartext, proof))
		score, err := s.service.GetScore(ctx, s.owner, s.owner.Identity)
		s.Require().NoError(err)
		s.Equal(map[ledger.Field]int64{ledger.FieldRisk: -12}, score.Revealed)
		s.Len(s.recorder.Named(events.ScoreDecrypted), 1)
	})

	s.Run("score completion needs exactly one cleartext", func() {
		cleartext, proof := s.signed(100, 1, 2)
		err := s.service.CompleteScoreDecryption(ctx, 100, cleartext, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})

	s.Run("record completion on a score request", func() {
		cleartext, proof := s.signed(100, 1, 2, 3)
		err := s.service.CompleteDecryption(ctx, 100, cleartext, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))
	})

	s.Run("other callers are forbidden", func() {
		_, err := s.service.RequestScoreDecryption(ctx, s.stranger, s.owner.Identity, ledger.FieldFinancial)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestScoreReplacedWhileDecryptionPending() {
	ctx := context.Background()
	s.submitScore(s.owner.Identity)

	s.expectOracleRequest(500, oracle.CallbackScore)
	_, err := s.service.RequestScoreDecryption(ctx, s.owner, s.owner.Identity, ledger.FieldFinancial)
	s.Require().NoError(err)

	financial, risk, improvement := handles(0xaa)
	s.Require().NoError(s.service.SubmitScore(ctx, scores.Submission{
		Owner:       s.owner.Identity,
		Financial:   financial,
		Risk:        risk,
		Improvement: improvement,
	}))

	cleartext, proof := s.signed(500, 777)
	err = s.service.Fulfill(ctx, 500, cleartext, proof)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	score, err := s.service.GetScore(ctx, s.owner, s.owner.Identity)
	s.Require().NoError(err)
	s.Equal(financial, score.Financial)
	s.NotContains(score.Revealed, ledger.FieldFinancial)
	s.Empty(s.recorder.Named(events.ScoreDecrypted))

	s.Run("stale request is retired", func() {
		err := s.service.Fulfill(ctx, 500, cleartext, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("new score can be decrypted", func() {
		s.expectOracleRequest(501, oracle.CallbackScore)
		_, err := s.service.RequestScoreDecryption(ctx, s.owner, s.owner.Identity, ledger.FieldFinancial)
		s.Require().NoError(err)
		cleartext, proof := s.signed(501, 42)
		s.Require().NoError(s.service.Fulfill(ctx, 501, cleartext, proof))
		score, err := s.service.GetScore(ctx, s.owner, s.owner.Identity)
		s.Require().NoError(err)
		s.Equal(map[ledger.Field]int64{ledger.FieldFinancial: 42}, score.Revealed)
	})
}

func (s *ServiceSuite) TestSubmitScoreValidation() {
	ctx := context.Background()
	financial, risk, improvement := handles(1)

	s.Run("source record of another owner", func() {
		recordID := s.submit(s.stranger)
		err := s.service.SubmitScore(ctx, scores.Submission{
			Owner: s.owner.Identity, Financial: financial, Risk: risk, Improvement: improvement,
			SourceRecord: recordID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing owner", func() {
		err := s.service.SubmitScore(ctx, scores.Submission{Financial: financial, Risk: risk, Improvement: improvement})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// Fulfill
// =============================================================================

func (s *ServiceSuite) TestFulfillDispatchesByTarget() {
	ctx := context.Background()
	recordID := s.submit(s.owner)
	s.submitScore(s.owner.Identity)

	s.expectOracleRequest(200, oracle.CallbackRecord)
	s.expectOracleRequest(201, oracle.CallbackScore)
	_, err := s.service.RequestDecryption(ctx, s.owner, recordID)
	s.Require().NoError(err)
	_, err = s.service.RequestScoreDecryption(ctx, s.owner, s.owner.Identity, ledger.FieldImprovement)
	s.Require().NoError(err)

	// Deliver out of order.
	c, p := s.signed(201, 64)
	s.Require().NoError(s.service.Fulfill(ctx, 201, c, p))
	c, p = s.signed(200, 5, 6, 7)
	s.Require().NoError(s.service.Fulfill(ctx, 200, c, p))

	revealed, err := s.service.GetRevealed(ctx, s.owner, recordID)
	s.Require().NoError(err)
	s.True(revealed.Revealed)
	s.Equal(int64(7), revealed.Savings)

	score, err := s.service.GetScore(ctx, s.owner, s.owner.Identity)
	s.Require().NoError(err)
	s.Equal(int64(64), score.Revealed[ledger.FieldImprovement])

	pending, err := s.service.PendingRequests(ctx)
	s.Require().NoError(err)
	s.Empty(pending)

	s.Run("unknown request id", func() {
		err := s.service.Fulfill(ctx, 999, c, p)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Listing and expiry
// =============================================================================

func (s *ServiceSuite) TestListRecords() {
	ctx := context.Background()
	first := s.submit(s.owner)
	s.submit(s.stranger)
	second := s.submit(s.owner)

	s.expectOracleRequest(1, oracle.CallbackRecord)
	_, err := s.service.RequestDecryption(ctx, s.owner, second)
	s.Require().NoError(err)
	c, p := s.signed(1, 1, 2, 3)
	s.Require().NoError(s.service.CompleteDecryption(ctx, 1, c, p))

	views, err := s.service.ListRecords(ctx, s.owner, s.owner.Identity)
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal(first, views[0].Record.ID)
	s.False(views[0].Revealed.Revealed)
	s.Equal(second, views[1].Record.ID)
	s.True(views[1].Revealed.Revealed)

	_, err = s.service.ListRecords(ctx, s.stranger, s.owner.Identity)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestSweeperExpiresStaleRequests() {
	ctx := context.Background()
	recordID := s.submit(s.owner)

	s.expectOracleRequest(50, oracle.CallbackRecord)
	_, err := s.service.RequestDecryption(ctx, s.owner, recordID)
	s.Require().NoError(err)

	sweeper := NewSweeper(s.service, time.Hour, time.Minute, slog.New(slog.DiscardHandler))
	sweeper.clock = func() time.Time { return s.now.Add(30 * time.Minute) }
	s.Empty(sweeper.Sweep(ctx))

	sweeper.clock = func() time.Time { return s.now.Add(2 * time.Hour) }
	s.Equal([]id.RequestID{50}, sweeper.Sweep(ctx))

	expired := s.recorder.Named(events.DecryptionExpired)
	s.Require().Len(expired, 1)
	s.Equal(recordID, expired[0].RecordID)

	s.Run("late callback is rejected", func() {
		c, p := s.signed(50, 1, 2, 3)
		err := s.service.Fulfill(ctx, 50, c, p)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("record can be requested again", func() {
		s.expectOracleRequest(51, oracle.CallbackRecord)
		_, err := s.service.RequestDecryption(ctx, s.owner, recordID)
		s.NoError(err)
	})
}

// flakyLedger retires requests normally but reports a store failure after
// the first expired entry.
type flakyLedger struct {
	*ledger.Ledger
}

func (f flakyLedger) ExpireBefore(ctx context.Context, cutoff time.Time) ([]ledger.Entry, error) {
	expired, err := f.Ledger.ExpireBefore(ctx, cutoff)
	if err != nil || len(expired) < 2 {
		return expired, err
	}
	return expired[:1], dErrors.New(dErrors.CodeInternal, "failed to expire pending requests")
}

func (s *ServiceSuite) TestExpirePendingAnnouncesPartialSweep() {
	ctx := context.Background()
	service := New(s.records, s.scores, flakyLedger{s.ledger}, s.oracle,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithPublisher(s.recorder),
		WithClock(func() time.Time { return s.now }),
	)
	first, second := s.submit(s.owner), s.submit(s.owner)
	for i, recordID := range []id.RecordID{first, second} {
		s.expectOracleRequest(id.RequestID(60+i), oracle.CallbackRecord)
		_, err := service.RequestDecryption(ctx, s.owner, recordID)
		s.Require().NoError(err)
	}

	expired, err := service.ExpirePending(ctx, s.now.Add(time.Minute))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Require().Len(expired, 1)

	announced := s.recorder.Named(events.DecryptionExpired)
	s.Require().Len(announced, 1)
	s.Equal(expired[0].RequestID, announced[0].RequestID)
}
