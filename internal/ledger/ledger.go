package ledger

import (
	"context"
	"errors"
	"time"

	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/platform/sentinel"
)

// Entry is a live pending decryption request.
type Entry struct {
	RequestID id.RequestID
	Target    Target
	// Handle is the ciphertext sent to the oracle for a score field. It is
	// zero for record requests.
	Handle       id.Handle
	RegisteredAt time.Time
}

// Record is the persisted form of an Entry; targets are stored encoded.
type Record struct {
	RequestID    id.RequestID
	Key          Key
	Handle       id.Handle
	RegisteredAt time.Time
}

// Store persists ledger records. Implementations must make Insert an atomic
// set-if-absent that also refuses ids that were retired earlier.
type Store interface {
	// Insert fails with sentinel.ErrAlreadyUsed if the id is live or retired.
	Insert(ctx context.Context, rec Record) error
	// Get fails with sentinel.ErrNotFound if the id is absent or retired.
	Get(ctx context.Context, requestID id.RequestID) (*Record, error)
	// Retire fails with sentinel.ErrNotFound if the id is not live.
	Retire(ctx context.Context, requestID id.RequestID) error
	Pending(ctx context.Context) ([]Record, error)
	// RetireBefore retires and returns every live record registered before
	// cutoff. On error it still returns the records it already retired.
	RetireBefore(ctx context.Context, cutoff time.Time) ([]Record, error)
}

// Ledger maps oracle request ids to decryption targets.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Register records that requestID will reveal target. handle is the
// ciphertext sent to the oracle, or zero when the target's store guards
// replacement itself.
func (l *Ledger) Register(ctx context.Context, requestID id.RequestID, target Target, handle id.Handle, now time.Time) error {
	if requestID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "request id must be positive")
	}
	key, err := Encode(target)
	if err != nil {
		return err
	}
	err = l.store.Insert(ctx, Record{RequestID: requestID, Key: key, Handle: handle, RegisteredAt: now})
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.New(dErrors.CodeConflict, "duplicate request id")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register request")
	}
	return nil
}

// Resolve returns the live entry for requestID without consuming it.
func (l *Ledger) Resolve(ctx context.Context, requestID id.RequestID) (*Entry, error) {
	if requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown request")
	}
	rec, err := l.store.Get(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown request")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve request")
	}
	return toEntry(*rec)
}

// Retire consumes requestID. A retired id never resolves again and can never
// be registered again.
func (l *Ledger) Retire(ctx context.Context, requestID id.RequestID) error {
	err := l.store.Retire(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "unknown request")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to retire request")
	}
	return nil
}

// Pending lists every live entry.
func (l *Ledger) Pending(ctx context.Context) ([]Entry, error) {
	recs, err := l.store.Pending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	return toEntries(recs)
}

// ExpireBefore retires every entry registered before cutoff and returns them.
// When the store fails partway, the entries it already retired are returned
// together with the error.
func (l *Ledger) ExpireBefore(ctx context.Context, cutoff time.Time) ([]Entry, error) {
	recs, storeErr := l.store.RetireBefore(ctx, cutoff)
	entries, err := toEntries(recs)
	if err != nil {
		return nil, err
	}
	if storeErr != nil {
		return entries, dErrors.Wrap(storeErr, dErrors.CodeInternal, "failed to expire pending requests")
	}
	return entries, nil
}

func toEntry(rec Record) (*Entry, error) {
	target, err := Decode(rec.Key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "ledger holds a key that does not decode")
	}
	return &Entry{RequestID: rec.RequestID, Target: target, Handle: rec.Handle, RegisteredAt: rec.RegisteredAt}, nil
}

func toEntries(recs []Record) ([]Entry, error) {
	out := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		entry, err := toEntry(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, nil
}
