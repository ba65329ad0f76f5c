package protocol

import (
	"context"

	"finwell/internal/ledger"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

// Fulfill is the single entrypoint the oracle delivers results to. The target
// is resolved once and the payload is routed by its kind, so record and score
// completions share one request id space without inspecting the payload.
func (s *Service) Fulfill(ctx context.Context, requestID id.RequestID, cleartexts, proof []byte) (err error) {
	ctx, done := s.start(ctx, "fulfill")
	defer func() { done(err) }()

	entry, err := s.ledger.Resolve(ctx, requestID)
	if err != nil {
		return err
	}
	switch entry.Target.Kind {
	case ledger.KindRecord:
		return s.completeRecord(ctx, entry, cleartexts, proof)
	case ledger.KindScore:
		return s.completeScore(ctx, entry, cleartexts, proof)
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "ledger entry has unknown target kind")
	}
}

// PendingRequests lists decryption requests still waiting for the oracle.
func (s *Service) PendingRequests(ctx context.Context) ([]ledger.Entry, error) {
	return s.ledger.Pending(ctx)
}
