package encryption_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/pkg/encryption"
)

func newEncryptor(t *testing.T) *encryption.AESEncryptor {
	t.Helper()
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)
	return enc
}

func TestAESEncryptor_RoundTrip(t *testing.T) {
	enc := newEncryptor(t)

	sealed, err := enc.Seal([]byte("token-value"), []byte("bot-1"))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "token-value")

	opened, err := enc.Open(sealed, []byte("bot-1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("token-value"), opened)
}

func TestAESEncryptor_AssociatedDataMismatch(t *testing.T) {
	enc := newEncryptor(t)
	sealed, err := enc.Seal([]byte("token-value"), []byte("bot-1"))
	require.NoError(t, err)

	_, err = enc.Open(sealed, []byte("bot-2"))

	assert.Error(t, err)
}

func TestAESEncryptor_NoncesDiffer(t *testing.T) {
	enc := newEncryptor(t)

	a, err := enc.Seal([]byte("x"), nil)
	require.NoError(t, err)
	b, err := enc.Seal([]byte("x"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAESEncryptor_KeyLength(t *testing.T) {
	_, err := encryption.NewAESEncryptor("short")
	assert.Error(t, err)

	_, err = encryption.NewAESEncryptor("0123456789abcdef0123456789abcdef")
	assert.NoError(t, err)
}

func TestAESEncryptor_RawKeyInBase64Alphabet(t *testing.T) {
	// Hex keys are valid base64 that decodes to 24 bytes.
	raw := "00112233445566778899aabbccddeeff"
	enc, err := encryption.NewAESEncryptor(raw)
	require.NoError(t, err)

	sealed, err := enc.Seal([]byte("token-value"), nil)
	require.NoError(t, err)

	same, err := encryption.NewAESEncryptor(raw)
	require.NoError(t, err)
	opened, err := same.Open(sealed, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("token-value"), opened)
}

func TestAESEncryptor_Base64Key(t *testing.T) {
	key, err := encryption.GenerateKey()
	require.NoError(t, err)

	_, err = encryption.NewAESEncryptor(key)
	assert.NoError(t, err)
}

func TestAESEncryptor_OpenGarbage(t *testing.T) {
	enc := newEncryptor(t)

	_, err := enc.Open("not base64!", nil)
	assert.Error(t, err)

	_, err = enc.Open("AAAA", nil)
	assert.Error(t, err)
}

func TestNoOpEncryptor_RoundTrip(t *testing.T) {
	enc := encryption.NewNoOpEncryptor()

	sealed, err := enc.Seal([]byte("plain"), []byte("ignored"))
	require.NoError(t, err)
	opened, err := enc.Open(sealed, nil)
	require.NoError(t, err)

	assert.Equal(t, []byte("plain"), opened)
}
