package ciphertext

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func TestHandleOf(t *testing.T) {
	blob := []byte("ciphertext bytes")

	assert.Equal(t, crypto.Keccak256Hash(blob).Bytes(), HandleOf(blob).Bytes(), "handle is keccak256 of the blob")
	assert.Equal(t, HandleOf(blob), HandleOf(append([]byte(nil), blob...)))
	assert.NotEqual(t, HandleOf(blob), HandleOf([]byte("other bytes")))
	assert.False(t, HandleOf(nil).IsNil(), "even the empty blob has a non-zero handle")
}
