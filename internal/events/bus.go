package events

import (
	"context"
	"log/slog"
	"sync"

	"finwell/pkg/platform/sentinel"
)

// Handler consumes an event delivered by the Bus.
type Handler func(ctx context.Context, event Event) error

// Bus is an in-process publisher. Publish enqueues onto a bounded channel and
// Run dispatches to subscribers on a single goroutine, in publish order.
type Bus struct {
	inbox  chan Event
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Name][]Handler
}

type BusOption func(*Bus)

func WithBusLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBuffer sets the inbox capacity.
func WithBuffer(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.inbox = make(chan Event, n)
		}
	}
}

func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		inbox:    make(chan Event, 1024),
		logger:   slog.Default(),
		handlers: make(map[Name][]Handler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for events named name. Subscribe before Run.
func (b *Bus) Subscribe(name Name, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish enqueues the event. It fails with sentinel.ErrUnavailable when the
// inbox is full rather than blocking the caller.
func (b *Bus) Publish(_ context.Context, event Event) error {
	select {
	case b.inbox <- event:
		return nil
	default:
		return sentinel.ErrUnavailable
	}
}

// Run dispatches events until ctx is done. Handler errors are logged and do
// not stop the bus.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-b.inbox:
			b.dispatch(ctx, event)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Name]
	b.mu.RUnlock()
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.ErrorContext(ctx, "event handler failed",
				"event", event.Name,
				"key", event.Key(),
				"error", err,
			)
		}
	}
}
