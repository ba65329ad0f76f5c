package protocol

import (
	"context"
	"log/slog"
	"time"

	"finwell/internal/events"
	"finwell/internal/ledger"
	id "finwell/pkg/domain"
)

// ExpirePending retires every request registered before cutoff. Expired
// records stay decryptable; a late callback for an expired id is rejected as
// an unknown request. When the ledger fails partway, the requests it already
// retired are still announced and returned with the error.
func (s *Service) ExpirePending(ctx context.Context, cutoff time.Time) (expired []ledger.Entry, err error) {
	ctx, done := s.start(ctx, "expire_pending")
	defer func() { done(err) }()

	expired, err = s.ledger.ExpireBefore(ctx, cutoff)
	s.metrics.addExpired(len(expired))
	now := s.now(ctx)
	for _, entry := range expired {
		event := events.Event{
			Name:      events.DecryptionExpired,
			RequestID: entry.RequestID,
			Timestamp: now,
		}
		attrs := []any{"oracle_request_id", entry.RequestID.String(), "target", entry.Target.String()}
		switch entry.Target.Kind {
		case ledger.KindRecord:
			event.RecordID = entry.Target.RecordID
		case ledger.KindScore:
			event.Owner = ownerRef(entry.Target.Owner)
			event.Field = entry.Target.Field.String()
		}
		s.logAudit(ctx, string(events.DecryptionExpired), attrs...)
		s.emit(ctx, event)
	}
	return expired, err
}

// Sweeper periodically expires pending requests older than a TTL.
type Sweeper struct {
	service  *Service
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time
}

func NewSweeper(service *Service, ttl, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{service: service, ttl: ttl, interval: interval, logger: logger, clock: time.Now}
}

// Run sweeps every interval until ctx is done. A zero TTL disables expiry.
func (w *Sweeper) Run(ctx context.Context) error {
	if w.ttl <= 0 || w.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass and returns the expired request ids.
func (w *Sweeper) Sweep(ctx context.Context) []id.RequestID {
	expired, err := w.service.ExpirePending(ctx, w.clock().Add(-w.ttl))
	if err != nil {
		w.logger.ErrorContext(ctx, "pending request sweep failed", "error", err, "expired", len(expired))
	}
	ids := make([]id.RequestID, len(expired))
	for i, e := range expired {
		ids[i] = e.RequestID
	}
	if len(ids) > 0 {
		w.logger.InfoContext(ctx, "expired pending decryption requests", "count", len(ids))
	}
	return ids
}
