// Package oracle defines the encryption oracle the protocol depends on and
// ships a local implementation backed by lattigo BGV.
//
// The oracle owns the key material. It accepts batched decryption requests for
// ciphertext handles, returns a request id immediately and later delivers the
// cleartexts together with a proof through a single callback entrypoint.
package oracle

//go:generate mockgen -source=oracle.go -destination=mocks/mocks.go -package=mocks Oracle,Callback

import (
	"context"
	"fmt"

	id "finwell/pkg/domain"
)

// CallbackKind selects which completion the oracle expects to feed. The
// protocol dispatches by the ledger target, so the kind is advisory and is
// only used for logging and metrics labels.
type CallbackKind int

const (
	CallbackRecord CallbackKind = iota + 1
	CallbackScore
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackRecord:
		return "record"
	case CallbackScore:
		return "score"
	default:
		return fmt.Sprintf("callback(%d)", int(k))
	}
}

// Oracle is the external encryption oracle consumed by the protocol.
type Oracle interface {
	// RequestDecryption asks for the cleartexts of handles and returns the
	// request id that will accompany the callback.
	RequestDecryption(ctx context.Context, handles []id.Handle, kind CallbackKind) (id.RequestID, error)
	// CheckSignatures verifies that proof attests cleartexts for requestID.
	// Failure is reported as CodeInvalidProof.
	CheckSignatures(ctx context.Context, requestID id.RequestID, cleartexts []byte, proof []byte) error
	// IsInitialized reports whether handle refers to a ciphertext the oracle knows.
	IsInitialized(ctx context.Context, handle id.Handle) bool
}

// Callback is the single physical entrypoint the oracle delivers results to.
type Callback interface {
	Fulfill(ctx context.Context, requestID id.RequestID, cleartexts []byte, proof []byte) error
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(ctx context.Context, requestID id.RequestID, cleartexts []byte, proof []byte) error

func (f CallbackFunc) Fulfill(ctx context.Context, requestID id.RequestID, cleartexts []byte, proof []byte) error {
	return f(ctx, requestID, cleartexts, proof)
}
