package cryptox

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x42}},
		{"short text", []byte("hello government")},
		{"binary", []byte{0x00, 0xff, 0x10, 0x80, 0x00}},
		{"large", bytes.Repeat([]byte("digisewa"), 100_000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, nonce, err := Encrypt(tt.plaintext, key)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, ciphertext)

			got, err := Decrypt(ciphertext, key, nonce)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, got)
		})
	}
}

func TestGenerateKeyLength(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(key)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestEncryptNonceUniqueness(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	plaintext := []byte("same plaintext every time")
	seen := make(map[string]struct{})
	for i := 0; i < 256; i++ {
		_, nonce, err := Encrypt(plaintext, key)
		require.NoError(t, err)
		_, dup := seen[nonce]
		require.False(t, dup, "nonce reused after %d encryptions", i)
		seen[nonce] = struct{}{}
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	ciphertext, nonce, err := Encrypt([]byte("original content"), key)
	require.NoError(t, err)

	ciphertext[0] ^= 0x01

	got, err := Decrypt(ciphertext, key, nonce)
	assert.ErrorIs(t, err, ErrDecryption)
	assert.Nil(t, got)
}

func TestDecryptMalformedInputs(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	ciphertext, nonce, err := Encrypt([]byte("content"), key)
	require.NoError(t, err)

	tests := []struct {
		name       string
		ciphertext []byte
		key        string
		nonce      string
	}{
		{"not base64 key", ciphertext, "%%%not-base64%%%", nonce},
		{"short key", ciphertext, base64.StdEncoding.EncodeToString([]byte("short")), nonce},
		{"wrong key", ciphertext, mustKey(t), nonce},
		{"not base64 nonce", ciphertext, key, "%%%"},
		{"short nonce", ciphertext, key, base64.StdEncoding.EncodeToString([]byte{1, 2, 3})},
		{"truncated ciphertext", ciphertext[:4], key, nonce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.ciphertext, tt.key, tt.nonce)
			assert.ErrorIs(t, err, ErrDecryption)
		})
	}
}

func TestDigest(t *testing.T) {
	want := sha256.Sum256([]byte("hello government"))
	assert.Equal(t, hex.EncodeToString(want[:]), Digest([]byte("hello government")))

	// Digest of empty input is the well-known empty sha256.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Digest(nil))
}

func TestHashAccessCode(t *testing.T) {
	h1 := HashAccessCode("secret-code-1234")
	h2 := HashAccessCode("secret-code-1234")
	h3 := HashAccessCode("secret-code-1235")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.NotContains(t, h1, "secret")
}

func mustKey(t *testing.T) string {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	return key
}
