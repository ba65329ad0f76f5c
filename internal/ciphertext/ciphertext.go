// Package ciphertext holds the opaque ciphertext blobs referenced by record
// and score handles. Handles are the Keccak-256 digest of the stored bytes,
// so a handle can never point at two different ciphertexts.
package ciphertext

import (
	"context"

	"golang.org/x/crypto/sha3"

	id "finwell/pkg/domain"
)

// MaxBlobSize bounds a single uploaded ciphertext. It stays below the JSON
// body limit once base64 encoded.
const MaxBlobSize = 512 << 10

// Store persists ciphertext blobs by content handle.
type Store interface {
	Put(ctx context.Context, blob []byte) (id.Handle, error)
	Get(ctx context.Context, handle id.Handle) ([]byte, error)
	Has(ctx context.Context, handle id.Handle) (bool, error)
}

// HandleOf derives the content handle of a blob.
func HandleOf(blob []byte) id.Handle {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(blob)
	var out id.Handle
	h.Sum(out[:0])
	return out
}
