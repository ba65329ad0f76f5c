// Package audit keeps an append-only trail of protocol notifications so
// operators can reconstruct what happened to a record or an owner's score.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finwell/internal/events"
	id "finwell/pkg/domain"
)

// Entry is one archived notification.
type Entry struct {
	ID         uuid.UUID
	Event      events.Event
	RecordedAt time.Time
}

// Query filters the trail. Zero fields match everything. Limit keeps the
// most recent entries.
type Query struct {
	RecordID id.RecordID
	Owner    *id.Identity
	Limit    int
}

// Store persists entries. Append is idempotent on Entry.ID.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, q Query) ([]Entry, error)
}

// Publisher archives every notification it receives. It is meant to sit in
// an events.Fanout next to the other sinks.
type Publisher struct {
	store Store
	clock func() time.Time
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store, clock: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	now := p.clock().UTC()
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	return p.store.Append(ctx, Entry{ID: uuid.New(), Event: event, RecordedAt: now})
}

// List returns the entries matching q, oldest first.
func (p *Publisher) List(ctx context.Context, q Query) ([]Entry, error) {
	return p.store.List(ctx, q)
}

var _ events.Publisher = (*Publisher)(nil)
