package oracle

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "finwell/pkg/domain-errors"
)

var (
	sharedKeysOnce sync.Once
	sharedKeys     *KeyMaterial
)

// testKeys shares one key pair across the package tests; key generation
// dominates the runtime otherwise.
func testKeys(t *testing.T) *KeyMaterial {
	t.Helper()
	sharedKeysOnce.Do(func() {
		params, err := DefaultParameters()
		require.NoError(t, err)
		sharedKeys = GenerateKeyMaterial(params)
	})
	return sharedKeys
}

func encrypt(t *testing.T, c *PublicContext, v int64) []byte {
	t.Helper()
	blob, err := c.Encrypt(v)
	require.NoError(t, err)
	return blob
}

func TestEncryptDecrypt(t *testing.T) {
	keys := testKeys(t)

	for _, v := range []int64{0, 1, 100, -50, keys.MaxValue(), -keys.MaxValue()} {
		got, err := keys.Decrypt(encrypt(t, keys.PublicContext, v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestEncryptRejectsOutOfRange(t *testing.T) {
	keys := testKeys(t)
	_, err := keys.Encrypt(keys.MaxValue() + 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestDecryptRejectsGarbage(t *testing.T) {
	keys := testKeys(t)
	_, err := keys.Decrypt([]byte("not a ciphertext"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Error(t, keys.Validate([]byte{0x01}))
}

func TestLinearCombination(t *testing.T) {
	keys := testKeys(t)
	income := encrypt(t, keys.PublicContext, 100)
	expenses := encrypt(t, keys.PublicContext, 50)
	savings := encrypt(t, keys.PublicContext, 20)

	t.Run("weighted sum with bias", func(t *testing.T) {
		blob, err := keys.LinearCombination([][]byte{income, expenses, savings}, []int64{2, -3, 5}, 7)
		require.NoError(t, err)
		got, err := keys.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, int64(2*100-3*50+5*20+7), got)
	})

	t.Run("negative result", func(t *testing.T) {
		blob, err := keys.LinearCombination([][]byte{income, expenses}, []int64{-1, 1}, 0)
		require.NoError(t, err)
		got, err := keys.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, int64(-50), got)
	})

	t.Run("weights must match ciphertexts", func(t *testing.T) {
		_, err := keys.LinearCombination([][]byte{income}, []int64{1, 2}, 0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestPublicKeyDocumentRoundTrip(t *testing.T) {
	keys := testKeys(t)
	doc, err := keys.Document()
	require.NoError(t, err)

	client, err := ParsePublicKeyDocument(doc)
	require.NoError(t, err)

	got, err := keys.Decrypt(encrypt(t, client, 4242))
	require.NoError(t, err)
	assert.Equal(t, int64(4242), got, "client-side encryption decrypts under the oracle key")

	_, err = ParsePublicKeyDocument(&PublicKeyDocument{})
	assert.Error(t, err)
}

func TestLoadOrGenerateKeyMaterial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle-keys.json")

	first, err := LoadOrGenerateKeyMaterial(path)
	require.NoError(t, err)
	blob := encrypt(t, first.PublicContext, 77)

	second, err := LoadOrGenerateKeyMaterial(path)
	require.NoError(t, err)
	got, err := second.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, int64(77), got, "reloaded keys decrypt ciphertexts made before the restart")
}
