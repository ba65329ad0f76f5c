package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"finwell/internal/ciphertext"
	"finwell/internal/events"
	"finwell/internal/protocol"
	"finwell/internal/records"
	"finwell/internal/scores"
	id "finwell/pkg/domain"
)

// Evaluator evaluates linear forms over ciphertexts.
type Evaluator interface {
	LinearCombination(blobs [][]byte, weights []int64, bias int64) ([]byte, error)
}

// Protocol is the part of the protocol service the worker drives.
type Protocol interface {
	GetRecord(ctx context.Context, caller protocol.Caller, recordID id.RecordID) (*records.EncryptedRecord, error)
	SubmitScore(ctx context.Context, sub scores.Submission) error
}

// Worker answers AnalysisRequested notifications with a freshly computed
// encrypted score for the record's owner.
type Worker struct {
	blobs    ciphertext.Store
	eval     Evaluator
	protocol Protocol
	model    Model
	logger   *slog.Logger
}

type Option func(*Worker)

func WithModel(m Model) Option {
	return func(w *Worker) {
		w.model = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func New(blobs ciphertext.Store, eval Evaluator, p Protocol, opts ...Option) *Worker {
	w := &Worker{
		blobs:    blobs,
		eval:     eval,
		protocol: p,
		model:    DefaultModel,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Subscribe attaches the worker to the bus.
func (w *Worker) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.AnalysisRequested, w.Handle)
}

// Handle scores the record named by event.
func (w *Worker) Handle(ctx context.Context, event events.Event) error {
	if event.Name != events.AnalysisRequested || event.RecordID.IsNil() {
		return nil
	}
	// The worker acts for the system, not for the record owner.
	rec, err := w.protocol.GetRecord(ctx, protocol.Caller{Operator: true}, event.RecordID)
	if err != nil {
		return fmt.Errorf("load record %s: %w", event.RecordID, err)
	}
	sub, err := w.Score(ctx, rec)
	if err != nil {
		return err
	}
	if err := w.protocol.SubmitScore(ctx, sub); err != nil {
		return fmt.Errorf("submit score for record %s: %w", rec.ID, err)
	}
	w.logger.InfoContext(ctx, "score computed",
		"record_id", rec.ID.String(),
		"owner", rec.Owner.String(),
		"request_id", event.TraceID,
	)
	return nil
}

// Score evaluates the model on rec's ciphertexts and stores the three
// resulting ciphertexts.
func (w *Worker) Score(ctx context.Context, rec *records.EncryptedRecord) (scores.Submission, error) {
	inputs := make([][]byte, 0, 3)
	for _, h := range rec.Handles() {
		blob, err := w.blobs.Get(ctx, h)
		if err != nil {
			return scores.Submission{}, fmt.Errorf("load ciphertext %s: %w", h, err)
		}
		inputs = append(inputs, blob)
	}

	var out [3]id.Handle
	for i, f := range []Formula{w.model.Financial, w.model.Risk, w.model.Improvement} {
		blob, err := w.eval.LinearCombination(inputs, f.weights(), f.Bias)
		if err != nil {
			return scores.Submission{}, fmt.Errorf("evaluate score: %w", err)
		}
		if out[i], err = w.blobs.Put(ctx, blob); err != nil {
			return scores.Submission{}, fmt.Errorf("store score ciphertext: %w", err)
		}
	}
	return scores.Submission{
		Owner:        rec.Owner,
		Financial:    out[0],
		Risk:         out[1],
		Improvement:  out[2],
		SourceRecord: rec.ID,
	}, nil
}
