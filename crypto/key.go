// Package crypto protects small strings at rest with envelope encryption.
//
// Each alias owns one 128-bit AES data key. On platforms with a modern key
// facility the data key is wrapped with an RSA key pair held by the platform
// and the wrapped record is kept in a preferences store. Without one, the raw
// data key is kept in a passphrase-protected legacy keyring instead.
// StringCipher encrypts strings with the data key as IV || AES-CBC ciphertext,
// Base64 encoded.
package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"runtime"
)

// SymmetricKeySize is the length of a data key in bytes (AES-128).
const SymmetricKeySize = 16

// SymmetricKey is raw data key material. It is never persisted unwrapped
// on the modern path.
type SymmetricKey []byte

// Wipe overwrites the key in place.
func (k SymmetricKey) Wipe() {
	wipe(k)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// RandomSource supplies cryptographically secure random bytes.
// keystore.KeyFacility satisfies it.
type RandomSource interface {
	SecureRandomBytes(n int) ([]byte, error)
}

// SystemRandom reads from crypto/rand.
type SystemRandom struct{}

func (SystemRandom) SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// newSymmetricKey draws a fresh data key from random.
func newSymmetricKey(random RandomSource) (SymmetricKey, error) {
	key, err := random.SecureRandomBytes(SymmetricKeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("random source returned %d bytes, want %d", len(key), SymmetricKeySize)
	}
	return key, nil
}
