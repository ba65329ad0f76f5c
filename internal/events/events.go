// Package events carries protocol notifications to in-process subscribers
// and external sinks.
package events

import (
	"context"
	"errors"
	"time"

	id "finwell/pkg/domain"
)

// Name identifies a notification.
type Name string

const (
	DataSubmitted            Name = "DataSubmitted"
	AnalysisRequested        Name = "AnalysisRequested"
	ScoreCalculated          Name = "ScoreCalculated"
	DecryptionRequested      Name = "DecryptionRequested"
	DataDecrypted            Name = "DataDecrypted"
	ScoreDecryptionRequested Name = "ScoreDecryptionRequested"
	ScoreDecrypted           Name = "ScoreDecrypted"
	DecryptionExpired        Name = "DecryptionExpired"
)

// Event is a single protocol notification. Only the fields relevant to Name
// are set. Plaintext never travels in an event.
type Event struct {
	Name      Name         `json:"name"`
	RecordID  id.RecordID  `json:"record_id,omitempty"`
	Owner     *id.Identity `json:"owner,omitempty"`
	RequestID id.RequestID `json:"request_id,omitempty"`
	Field     string       `json:"field,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	// TraceID is the HTTP request id that caused the event, when known.
	TraceID string `json:"trace_id,omitempty"`
}

// Key returns the partitioning key: the record id when set, else the owner.
func (e Event) Key() string {
	if !e.RecordID.IsNil() {
		return "record:" + e.RecordID.String()
	}
	if e.Owner != nil {
		return "owner:" + e.Owner.String()
	}
	return string(e.Name)
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Fanout publishes to every sink and joins their errors. A failing sink does
// not stop delivery to the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })
