package protocol

import (
	"context"
	"errors"

	"finwell/internal/events"
	"finwell/internal/ledger"
	"finwell/internal/oracle"
	"finwell/internal/scores"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/platform/sentinel"
)

// SubmitScore stores the encrypted score of sub.Owner, replacing any earlier
// score and its revealed fields. It is called by the analysis worker.
func (s *Service) SubmitScore(ctx context.Context, sub scores.Submission) (err error) {
	ctx, done := s.start(ctx, "submit_score")
	defer func() { done(err) }()

	if sub.Owner.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "score owner required")
	}
	if err := s.requireInitialized(ctx, sub.Financial, sub.Risk, sub.Improvement); err != nil {
		return err
	}
	if !sub.SourceRecord.IsNil() {
		rec, err := s.loadRecord(ctx, sub.SourceRecord)
		if err != nil {
			return err
		}
		if rec.Owner != sub.Owner {
			return dErrors.New(dErrors.CodeInvalidInput, "source record belongs to another owner")
		}
	}

	now := s.now(ctx)
	if err := s.scores.Submit(ctx, sub, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store score")
	}

	s.logAudit(ctx, string(events.ScoreCalculated),
		"owner", sub.Owner.String(),
		"record_id", sub.SourceRecord.String(),
	)
	s.emit(ctx, events.Event{
		Name:      events.ScoreCalculated,
		Owner:     ownerRef(sub.Owner),
		RecordID:  sub.SourceRecord,
		Timestamp: now,
	})
	return nil
}

// HasScore reports whether owner has a score.
func (s *Service) HasScore(ctx context.Context, owner id.Identity) (bool, error) {
	ok, err := s.scores.HasScore(ctx, owner)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up score")
	}
	return ok, nil
}

// GetScore returns owner's encrypted score with any revealed fields.
func (s *Service) GetScore(ctx context.Context, caller Caller, owner id.Identity) (*scores.WellnessScore, error) {
	if err := s.authorize(caller, owner); err != nil {
		return nil, err
	}
	return s.loadScore(ctx, owner)
}

// RequestScoreDecryption asks the oracle for one field of owner's score.
func (s *Service) RequestScoreDecryption(ctx context.Context, caller Caller, owner id.Identity, field ledger.Field) (requestID id.RequestID, err error) {
	ctx, done := s.start(ctx, "request_score_decryption")
	defer func() { done(err) }()

	if err := s.authorize(caller, owner); err != nil {
		return 0, err
	}
	score, err := s.loadScore(ctx, owner)
	if err != nil {
		return 0, err
	}
	handle, ok := score.Handle(field)
	if !ok {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid score field")
	}

	requestID, err = s.oracle.RequestDecryption(ctx, []id.Handle{handle}, oracle.CallbackScore)
	if err != nil {
		return 0, oracleError(err)
	}
	now := s.now(ctx)
	if err := s.ledger.Register(ctx, requestID, ledger.ScoreTarget(owner, field), handle, now); err != nil {
		return 0, err
	}

	s.logAudit(ctx, string(events.ScoreDecryptionRequested),
		"owner", owner.String(),
		"field", field.String(),
		"oracle_request_id", requestID.String(),
	)
	s.emit(ctx, events.Event{
		Name:      events.ScoreDecryptionRequested,
		Owner:     ownerRef(owner),
		RequestID: requestID,
		Field:     field.String(),
		Timestamp: now,
	})
	return requestID, nil
}

// CompleteScoreDecryption records the cleartext of the score field targeted
// by requestID.
func (s *Service) CompleteScoreDecryption(ctx context.Context, requestID id.RequestID, cleartext, proof []byte) (err error) {
	ctx, done := s.start(ctx, "complete_score_decryption")
	defer func() { done(err) }()

	entry, err := s.ledger.Resolve(ctx, requestID)
	if err != nil {
		return err
	}
	if entry.Target.Kind != ledger.KindScore {
		return dErrors.New(dErrors.CodeInvalidRequest, "request does not target a score field")
	}
	return s.completeScore(ctx, entry, cleartext, proof)
}

func (s *Service) completeScore(ctx context.Context, entry *ledger.Entry, cleartext, proof []byte) error {
	if err := s.oracle.CheckSignatures(ctx, entry.RequestID, cleartext, proof); err != nil {
		return proofError(err)
	}
	values, err := oracle.DecodeCleartexts(cleartext, 1)
	if err != nil {
		return err
	}
	owner, field := entry.Target.Owner, entry.Target.Field

	err = s.scores.RecordReveal(ctx, owner, field, entry.Handle, values[0])
	if errors.Is(err, sentinel.ErrInvalidState) {
		// the score was replaced after the request; its cleartext is stale
		s.retire(ctx, entry.RequestID)
		s.logger.WarnContext(ctx, "discarded stale score decryption",
			"owner", owner.String(),
			"field", field.String(),
			"oracle_request_id", entry.RequestID.String(),
		)
		return errScoreReplaced
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return errNoScore
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record score reveal")
	}
	s.retire(ctx, entry.RequestID)
	s.metrics.incReveal("score")

	s.logAudit(ctx, string(events.ScoreDecrypted),
		"owner", owner.String(),
		"field", field.String(),
		"oracle_request_id", entry.RequestID.String(),
	)
	s.emit(ctx, events.Event{
		Name:      events.ScoreDecrypted,
		Owner:     ownerRef(owner),
		RequestID: entry.RequestID,
		Field:     field.String(),
		Timestamp: s.now(ctx),
	})
	return nil
}

func (s *Service) loadScore(ctx context.Context, owner id.Identity) (*scores.WellnessScore, error) {
	score, err := s.scores.Get(ctx, owner)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, errNoScore
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score")
	}
	if !score.Present() {
		return nil, errNoScore
	}
	return score, nil
}
