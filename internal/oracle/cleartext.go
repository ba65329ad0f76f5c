package oracle

import (
	"encoding/binary"

	dErrors "finwell/pkg/domain-errors"
)

// WordSize is the width of one encoded cleartext value.
const WordSize = 32

// EncodeCleartexts packs values as consecutive 32-byte big-endian
// two's-complement words.
func EncodeCleartexts(values ...int64) []byte {
	out := make([]byte, WordSize*len(values))
	for i, v := range values {
		word := out[i*WordSize : (i+1)*WordSize]
		if v < 0 {
			for j := 0; j < WordSize-8; j++ {
				word[j] = 0xff
			}
		}
		binary.BigEndian.PutUint64(word[WordSize-8:], uint64(v))
	}
	return out
}

// DecodeCleartexts unpacks exactly n words. A payload of the wrong length or
// a word that does not sign-extend from 64 bits is malformed.
func DecodeCleartexts(payload []byte, n int) ([]int64, error) {
	if n <= 0 || len(payload) != n*WordSize {
		return nil, dErrors.New(dErrors.CodeMalformedPayload, "cleartext payload has the wrong length")
	}
	out := make([]int64, n)
	for i := range out {
		word := payload[i*WordSize : (i+1)*WordSize]
		v := int64(binary.BigEndian.Uint64(word[WordSize-8:]))
		var pad byte
		if v < 0 {
			pad = 0xff
		}
		for _, b := range word[:WordSize-8] {
			if b != pad {
				return nil, dErrors.New(dErrors.CodeMalformedPayload, "cleartext value out of range")
			}
		}
		out[i] = v
	}
	return out, nil
}
