package oracle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "finwell/pkg/domain-errors"
)

func TestEncodeCleartexts(t *testing.T) {
	payload := EncodeCleartexts(100, -1)
	require.Len(t, payload, 2*WordSize)

	assert.Equal(t, byte(100), payload[WordSize-1])
	for _, b := range payload[:WordSize-1] {
		assert.Zero(t, b)
	}
	for _, b := range payload[WordSize:] {
		assert.Equal(t, byte(0xff), b, "-1 is all ones")
	}
}

func TestDecodeCleartexts(t *testing.T) {
	t.Run("round trips boundary values", func(t *testing.T) {
		values := []int64{0, 1, -1, 100, -50, math.MaxInt64, math.MinInt64}
		got, err := DecodeCleartexts(EncodeCleartexts(values...), len(values))
		require.NoError(t, err)
		assert.Equal(t, values, got)
	})

	t.Run("rejects wrong arity", func(t *testing.T) {
		_, err := DecodeCleartexts(EncodeCleartexts(1, 2), 3)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))

		_, err = DecodeCleartexts(EncodeCleartexts(1, 2, 3, 4), 3)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})

	t.Run("rejects truncated word", func(t *testing.T) {
		_, err := DecodeCleartexts(EncodeCleartexts(7)[:WordSize-1], 1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})

	t.Run("rejects values wider than 64 bits", func(t *testing.T) {
		payload := EncodeCleartexts(5)
		payload[0] = 0x01
		_, err := DecodeCleartexts(payload, 1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})

	t.Run("rejects inconsistent sign extension", func(t *testing.T) {
		payload := EncodeCleartexts(-5)
		payload[3] = 0x00
		_, err := DecodeCleartexts(payload, 1)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})

	t.Run("rejects empty arity", func(t *testing.T) {
		_, err := DecodeCleartexts(nil, 0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
	})
}
