package oracle

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"finwell/internal/ciphertext"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

type job struct {
	requestID id.RequestID
	handles   []id.Handle
	kind      CallbackKind
}

// Local is an in-process oracle: it keeps the BGV secret key, decrypts
// requested handles on a worker pool and delivers signed results to the
// registered Callback in whatever order the workers finish.
type Local struct {
	keys     *KeyMaterial
	blobs    ciphertext.Store
	ids      RequestIDSource
	signer   *Signer
	verifier *Verifier
	callback Callback

	jobs         chan job
	workers      int
	maxAttempts  int
	retryBackoff time.Duration

	logger  *slog.Logger
	metrics *Metrics
}

// LocalOption configures a Local oracle.
type LocalOption func(*Local)

func WithLogger(logger *slog.Logger) LocalOption {
	return func(l *Local) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) LocalOption {
	return func(l *Local) {
		l.metrics = m
	}
}

// WithWorkers sets the relayer pool size.
func WithWorkers(n int) LocalOption {
	return func(l *Local) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueSize bounds the number of undelivered jobs.
func WithQueueSize(n int) LocalOption {
	return func(l *Local) {
		if n > 0 {
			l.jobs = make(chan job, n)
		}
	}
}

// WithRetry controls redelivery when the callback does not know the request
// yet. The caller registers the request id only after RequestDecryption
// returns, so a fast worker can race it.
func WithRetry(attempts int, backoff time.Duration) LocalOption {
	return func(l *Local) {
		if attempts > 0 {
			l.maxAttempts = attempts
		}
		if backoff > 0 {
			l.retryBackoff = backoff
		}
	}
}

func NewLocal(keys *KeyMaterial, blobs ciphertext.Store, ids RequestIDSource, signer *Signer, opts ...LocalOption) *Local {
	l := &Local{
		keys:         keys,
		blobs:        blobs,
		ids:          ids,
		signer:       signer,
		verifier:     NewVerifier(signer.Address()),
		jobs:         make(chan job, 256),
		workers:      4,
		maxAttempts:  5,
		retryBackoff: 50 * time.Millisecond,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetCallback registers the entrypoint results are delivered to. It must be
// called before Run.
func (l *Local) SetCallback(cb Callback) {
	l.callback = cb
}

// Keys exposes the public half of the key material.
func (l *Local) Keys() *PublicContext {
	return l.keys.PublicContext
}

func (l *Local) RequestDecryption(ctx context.Context, handles []id.Handle, kind CallbackKind) (id.RequestID, error) {
	if len(handles) == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "at least one handle is required")
	}
	for _, h := range handles {
		if !l.IsInitialized(ctx, h) {
			return 0, dErrors.New(dErrors.CodeInvalidInput, "handle "+h.String()+" is not initialized")
		}
	}
	requestID, err := l.ids.Next(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "oracle could not issue a request id")
	}

	j := job{requestID: requestID, handles: append([]id.Handle(nil), handles...), kind: kind}
	select {
	case l.jobs <- j:
	default:
		return 0, dErrors.New(dErrors.CodeUnavailable, "oracle queue is full")
	}
	l.metrics.incRequest(kind)
	l.metrics.setQueueDepth(len(l.jobs))
	return requestID, nil
}

func (l *Local) CheckSignatures(_ context.Context, requestID id.RequestID, cleartexts []byte, proof []byte) error {
	return l.verifier.Verify(requestID, cleartexts, proof)
}

func (l *Local) IsInitialized(ctx context.Context, handle id.Handle) bool {
	if handle.IsNil() {
		return false
	}
	ok, err := l.blobs.Has(ctx, handle)
	if err != nil {
		l.logger.WarnContext(ctx, "ciphertext lookup failed", "handle", handle.String(), "error", err)
		return false
	}
	return ok
}

// Run starts the relayer pool and blocks until ctx is cancelled.
func (l *Local) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < l.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case j := <-l.jobs:
					l.metrics.setQueueDepth(len(l.jobs))
					l.process(ctx, j)
				}
			}
		})
	}
	return g.Wait()
}

func (l *Local) process(ctx context.Context, j job) {
	logger := l.logger.With("oracle_request_id", j.requestID.String(), "kind", j.kind.String())

	values := make([]int64, len(j.handles))
	for i, h := range j.handles {
		blob, err := l.blobs.Get(ctx, h)
		if err != nil {
			logger.ErrorContext(ctx, "ciphertext unavailable", "handle", h.String(), "error", err)
			l.metrics.incDelivery("decrypt_failed")
			return
		}
		v, err := l.keys.Decrypt(blob)
		if err != nil {
			logger.ErrorContext(ctx, "decryption failed", "handle", h.String(), "error", err)
			l.metrics.incDelivery("decrypt_failed")
			return
		}
		values[i] = v
	}

	cleartexts := EncodeCleartexts(values...)
	proof, err := l.signer.Sign(j.requestID, cleartexts)
	if err != nil {
		logger.ErrorContext(ctx, "signing failed", "error", err)
		l.metrics.incDelivery("sign_failed")
		return
	}
	l.deliver(ctx, logger, j.requestID, cleartexts, proof)
}

func (l *Local) deliver(ctx context.Context, logger *slog.Logger, requestID id.RequestID, cleartexts, proof []byte) {
	if l.callback == nil {
		logger.ErrorContext(ctx, "no callback registered, dropping result")
		l.metrics.incDelivery("dropped")
		return
	}
	backoff := l.retryBackoff
	for attempt := 1; ; attempt++ {
		err := l.callback.Fulfill(ctx, requestID, cleartexts, proof)
		if err == nil {
			logger.InfoContext(ctx, "decryption delivered", "attempt", attempt)
			l.metrics.incDelivery("delivered")
			return
		}
		if !dErrors.HasCode(err, dErrors.CodeNotFound) || attempt >= l.maxAttempts {
			logger.WarnContext(ctx, "decryption callback rejected", "attempt", attempt, "error", err)
			l.metrics.incDelivery("rejected")
			return
		}
		select {
		case <-ctx.Done():
			l.metrics.incDelivery("dropped")
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
