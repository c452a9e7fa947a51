// Package cryptox holds the symmetric cipher and hashing primitives used by
// the custody pipeline. Keys and nonces travel base64-encoded because that is
// how they are persisted; all functions here are pure apart from randomness.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const keySize = 32 // AES-256

// ErrDecryption is returned when key/nonce material is malformed or the
// ciphertext fails authentication. It is deliberately distinct from any access
// or integrity error: a caller seeing it should suspect corrupted custody
// metadata, not tampered content or a permissions problem.
var ErrDecryption = errors.New("decryption failed")

// GenerateKey produces a fresh random 256-bit AES key, base64-encoded.
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext with AES-256-GCM under the given base64 key.
// A fresh random nonce is generated on every call; reusing a nonce under GCM
// would break confidentiality, so callers must always store the returned one.
func Encrypt(plaintext []byte, key string) (ciphertext []byte, nonce string, err error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, "", err
	}

	rawNonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(rawNonce); err != nil {
		return nil, "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext = aead.Seal(nil, rawNonce, plaintext, nil)
	return ciphertext, base64.StdEncoding.EncodeToString(rawNonce), nil
}

// Decrypt is the inverse of Encrypt. Any failure, from undecodable key
// material to a GCM tag mismatch, surfaces as ErrDecryption so that garbage
// bytes are never returned as if they were valid plaintext.
func Decrypt(ciphertext []byte, key, nonce string) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	rawNonce, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil || len(rawNonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce", ErrDecryption)
	}

	plaintext, err := aead.Open(nil, rawNonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

func newAEAD(key string) (cipher.AEAD, error) {
	rawKey, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(rawKey) != keySize {
		return nil, fmt.Errorf("%w: bad key", ErrDecryption)
	}
	block, err := aes.NewCipher(rawKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return aead, nil
}

// Digest returns the hex-encoded SHA-256 of data. Used as the plaintext
// integrity reference that is re-checked on retrieval and anchored on the ledger.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashAccessCode hashes a human-supplied access code before it is persisted
// or looked up. The code itself is never stored.
func HashAccessCode(code string) string {
	return Digest([]byte(code))
}
