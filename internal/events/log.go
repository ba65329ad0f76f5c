package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes every event as a structured log line.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	args := []any{
		"log_type", "event",
		"event", string(event.Name),
		"timestamp", event.Timestamp,
	}
	if !event.RecordID.IsNil() {
		args = append(args, "record_id", event.RecordID.String())
	}
	if event.Owner != nil {
		args = append(args, "owner", event.Owner.String())
	}
	if !event.RequestID.IsNil() {
		args = append(args, "oracle_request_id", event.RequestID.String())
	}
	if event.Field != "" {
		args = append(args, "field", event.Field)
	}
	if event.TraceID != "" {
		args = append(args, "request_id", event.TraceID)
	}
	p.logger.InfoContext(ctx, string(event.Name), args...)
	return nil
}
