package protocol

import (
	"context"
	"errors"

	"finwell/internal/events"
	"finwell/internal/ledger"
	"finwell/internal/oracle"
	"finwell/internal/records"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/platform/sentinel"
	"finwell/pkg/requestcontext"
)

// RecordView pairs an encrypted record with its reveal state.
type RecordView struct {
	Record   *records.EncryptedRecord
	Revealed *records.RevealedRecord
}

// Submit registers a new encrypted record owned by the caller.
func (s *Service) Submit(ctx context.Context, caller Caller, income, expenses, savings id.Handle) (recordID id.RecordID, err error) {
	ctx, done := s.start(ctx, "submit")
	defer func() { done(err) }()

	if caller.Identity.IsNil() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	if err := s.requireInitialized(ctx, income, expenses, savings); err != nil {
		return 0, err
	}

	now := s.now(ctx)
	recordID, err = s.records.AllocateAndStore(ctx, caller.Identity, income, expenses, savings, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store record")
	}

	s.logAudit(ctx, string(events.DataSubmitted),
		"record_id", recordID.String(),
		"owner", caller.Identity.String(),
	)
	s.emit(ctx, events.Event{
		Name:      events.DataSubmitted,
		RecordID:  recordID,
		Owner:     ownerRef(caller.Identity),
		Timestamp: now,
	})
	return recordID, nil
}

func (s *Service) requireInitialized(ctx context.Context, handles ...id.Handle) error {
	for _, h := range handles {
		if !s.oracle.IsInitialized(ctx, h) {
			return dErrors.New(dErrors.CodeInvalidInput, "ciphertext handle "+h.String()+" is not initialized")
		}
	}
	return nil
}

// RequestAnalysis notifies analyzers that recordID should be scored. It does
// not change persisted state and may be repeated.
func (s *Service) RequestAnalysis(ctx context.Context, caller Caller, recordID id.RecordID) (err error) {
	ctx, done := s.start(ctx, "request_analysis")
	defer func() { done(err) }()

	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if err := s.authorize(caller, rec.Owner); err != nil {
		return err
	}

	event := events.Event{
		Name:      events.AnalysisRequested,
		RecordID:  recordID,
		Owner:     ownerRef(rec.Owner),
		Timestamp: s.now(ctx),
		TraceID:   requestcontext.RequestID(ctx),
	}
	// The notification is the whole effect here, so a failed publish fails
	// the operation.
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.incPublishFailure(event.Name)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to dispatch analysis request")
	}
	s.logAudit(ctx, string(events.AnalysisRequested), "record_id", recordID.String())
	return nil
}

// RequestDecryption asks the oracle for the three cleartexts of recordID and
// registers the returned request id against the record.
func (s *Service) RequestDecryption(ctx context.Context, caller Caller, recordID id.RecordID) (requestID id.RequestID, err error) {
	ctx, done := s.start(ctx, "request_decryption")
	defer func() { done(err) }()

	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return 0, err
	}
	if err := s.authorize(caller, rec.Owner); err != nil {
		return 0, err
	}
	revealed, err := s.loadRevealed(ctx, recordID)
	if err != nil {
		return 0, err
	}
	if revealed.Revealed {
		return 0, errAlreadyRevealed
	}

	requestID, err = s.oracle.RequestDecryption(ctx, rec.Handles(), oracle.CallbackRecord)
	if err != nil {
		return 0, oracleError(err)
	}
	now := s.now(ctx)
	if err := s.ledger.Register(ctx, requestID, ledger.RecordTarget(recordID), id.Handle{}, now); err != nil {
		return 0, err
	}

	s.logAudit(ctx, string(events.DecryptionRequested),
		"record_id", recordID.String(),
		"oracle_request_id", requestID.String(),
	)
	s.emit(ctx, events.Event{
		Name:      events.DecryptionRequested,
		RecordID:  recordID,
		RequestID: requestID,
		Timestamp: now,
	})
	return requestID, nil
}

// CompleteDecryption reveals the record targeted by requestID. The proof is
// checked before any state is read for mutation, and nothing is written
// unless every check passes.
func (s *Service) CompleteDecryption(ctx context.Context, requestID id.RequestID, cleartexts, proof []byte) (err error) {
	ctx, done := s.start(ctx, "complete_decryption")
	defer func() { done(err) }()

	entry, err := s.ledger.Resolve(ctx, requestID)
	if err != nil {
		return err
	}
	if entry.Target.Kind != ledger.KindRecord {
		return dErrors.New(dErrors.CodeInvalidRequest, "request does not target a record")
	}
	return s.completeRecord(ctx, entry, cleartexts, proof)
}

func (s *Service) completeRecord(ctx context.Context, entry *ledger.Entry, cleartexts, proof []byte) error {
	if err := s.oracle.CheckSignatures(ctx, entry.RequestID, cleartexts, proof); err != nil {
		return proofError(err)
	}
	recordID := entry.Target.RecordID
	revealed, err := s.loadRevealed(ctx, recordID)
	if err != nil {
		return err
	}
	if revealed.Revealed {
		return errAlreadyRevealed
	}
	values, err := oracle.DecodeCleartexts(cleartexts, 3)
	if err != nil {
		return err
	}

	now := s.now(ctx)
	err = s.records.Reveal(ctx, recordID, records.FiguresFrom(values), now)
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return errAlreadyRevealed
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeInvariantViolation, "ledger targets a record that does not exist")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reveal record")
	}
	s.retire(ctx, entry.RequestID)
	s.metrics.incReveal("record")

	s.logAudit(ctx, string(events.DataDecrypted),
		"record_id", recordID.String(),
		"oracle_request_id", entry.RequestID.String(),
	)
	s.emit(ctx, events.Event{
		Name:      events.DataDecrypted,
		RecordID:  recordID,
		RequestID: entry.RequestID,
		Timestamp: now,
	})
	return nil
}

// retire consumes a request whose reveal already committed. The reveal cannot
// be rolled back, so a failure leaves the entry for the sweeper and is logged.
func (s *Service) retire(ctx context.Context, requestID id.RequestID) {
	if err := s.ledger.Retire(ctx, requestID); err != nil {
		s.logger.ErrorContext(ctx, "failed to retire completed request",
			"oracle_request_id", requestID.String(),
			"error", err,
		)
	}
}

// GetRecord returns the encrypted record.
func (s *Service) GetRecord(ctx context.Context, caller Caller, recordID id.RecordID) (*records.EncryptedRecord, error) {
	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, rec.Owner); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetRevealed returns the reveal state of recordID. Fields are zero until the
// record is revealed.
func (s *Service) GetRevealed(ctx context.Context, caller Caller, recordID id.RecordID) (*records.RevealedRecord, error) {
	rec, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, rec.Owner); err != nil {
		return nil, err
	}
	return s.loadRevealed(ctx, recordID)
}

// ListRecords returns every record of owner with its reveal state, oldest first.
func (s *Service) ListRecords(ctx context.Context, caller Caller, owner id.Identity) ([]RecordView, error) {
	if err := s.authorize(caller, owner); err != nil {
		return nil, err
	}
	recs, err := s.records.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	ids := make([]id.RecordID, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	revealed, err := s.records.RevealedMany(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reveal state")
	}
	views := make([]RecordView, len(recs))
	for i, rec := range recs {
		rev := revealed[rec.ID]
		if rev == nil {
			rev = &records.RevealedRecord{ID: rec.ID}
		}
		views[i] = RecordView{Record: rec, Revealed: rev}
	}
	return views, nil
}

func (s *Service) loadRecord(ctx context.Context, recordID id.RecordID) (*records.EncryptedRecord, error) {
	if recordID.IsNil() {
		return nil, errRecordNotFound
	}
	rec, err := s.records.Get(ctx, recordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, errRecordNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	return rec, nil
}

func (s *Service) loadRevealed(ctx context.Context, recordID id.RecordID) (*records.RevealedRecord, error) {
	rev, err := s.records.GetRevealed(ctx, recordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, errRecordNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reveal state")
	}
	return rev, nil
}
