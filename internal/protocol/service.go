// Package protocol is the state machine that owns records, scores and the
// decryption ledger. Every mutation of those stores goes through Service.
//
// Per record: Submitted -> (AnalysisRequested)* -> DecryptionRequested -> Revealed.
// Revealed is terminal. Decryption is split into a request, which registers
// the oracle request id in the ledger, and a later completion delivered by the
// oracle through Fulfill.
package protocol

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"finwell/internal/events"
	"finwell/internal/ledger"
	"finwell/internal/oracle"
	"finwell/internal/records"
	"finwell/internal/scores"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/requestcontext"
)

type RecordStore interface {
	AllocateAndStore(ctx context.Context, owner id.Identity, income, expenses, savings id.Handle, now time.Time) (id.RecordID, error)
	Get(ctx context.Context, recordID id.RecordID) (*records.EncryptedRecord, error)
	GetRevealed(ctx context.Context, recordID id.RecordID) (*records.RevealedRecord, error)
	Reveal(ctx context.Context, recordID id.RecordID, figures records.Figures, now time.Time) error
	ListByOwner(ctx context.Context, owner id.Identity) ([]*records.EncryptedRecord, error)
	RevealedMany(ctx context.Context, ids []id.RecordID) (map[id.RecordID]*records.RevealedRecord, error)
}

type ScoreStore interface {
	Submit(ctx context.Context, sub scores.Submission, now time.Time) error
	HasScore(ctx context.Context, owner id.Identity) (bool, error)
	Get(ctx context.Context, owner id.Identity) (*scores.WellnessScore, error)
	RecordReveal(ctx context.Context, owner id.Identity, field ledger.Field, handle id.Handle, value int64) error
}

type Ledger interface {
	Register(ctx context.Context, requestID id.RequestID, target ledger.Target, handle id.Handle, now time.Time) error
	Resolve(ctx context.Context, requestID id.RequestID) (*ledger.Entry, error)
	Retire(ctx context.Context, requestID id.RequestID) error
	Pending(ctx context.Context) ([]ledger.Entry, error)
	ExpireBefore(ctx context.Context, cutoff time.Time) ([]ledger.Entry, error)
}

// Caller is the authenticated identity an operation runs on behalf of.
type Caller struct {
	Identity id.Identity
	Operator bool
}

// CallerFrom reads the caller placed on ctx by the auth middleware.
func CallerFrom(ctx context.Context) Caller {
	return Caller{Identity: requestcontext.Caller(ctx), Operator: requestcontext.IsOperator(ctx)}
}

// Service implements the protocol operations.
type Service struct {
	records RecordStore
	scores  ScoreStore
	ledger  Ledger
	oracle  oracle.Oracle

	publisher        events.Publisher
	enforceOwnership bool
	operators        []id.Identity
	clock            func() time.Time

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithOwnershipEnforcement restricts record and score operations to their
// owner and to operators.
func WithOwnershipEnforcement(enabled bool) Option {
	return func(s *Service) {
		s.enforceOwnership = enabled
	}
}

// WithOperators lists identities allowed to act on any record or score.
func WithOperators(operators ...id.Identity) Option {
	return func(s *Service) {
		s.operators = append(s.operators, operators...)
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func New(recordStore RecordStore, scoreStore ScoreStore, l Ledger, o oracle.Oracle, opts ...Option) *Service {
	s := &Service{
		records:   recordStore,
		scores:    scoreStore,
		ledger:    l,
		oracle:    o,
		publisher: events.Discard,
		clock:     time.Now,
		logger:    slog.Default(),
		tracer:    otel.Tracer("finwell/internal/protocol"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now prefers the request time stamped by the HTTP middleware so every
// timestamp written during one request agrees.
func (s *Service) now(ctx context.Context) time.Time {
	if t := requestcontext.Now(ctx); !t.IsZero() {
		return t
	}
	return s.clock()
}

func (s *Service) authorize(caller Caller, owner id.Identity) error {
	if !s.enforceOwnership {
		return nil
	}
	if caller.Operator {
		return nil
	}
	if caller.Identity.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	if caller.Identity == owner || slices.Contains(s.operators, caller.Identity) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "caller does not own this resource")
}

// start opens a span for op. The returned func records the outcome on the
// span and in metrics; call it with the operation's final error.
func (s *Service) start(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "protocol."+op)
	begin := time.Now()
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		s.metrics.observe(op, err, time.Since(begin))
	}
}

// emit publishes a notification for a transition that already committed.
// A failing sink cannot undo the transition, so the failure is logged and
// counted instead of returned.
func (s *Service) emit(ctx context.Context, event events.Event) {
	event.TraceID = requestcontext.RequestID(ctx)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.incPublishFailure(event.Name)
		s.logger.ErrorContext(ctx, "failed to publish notification",
			"event", string(event.Name),
			"key", event.Key(),
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func ownerRef(owner id.Identity) *id.Identity {
	return &owner
}
