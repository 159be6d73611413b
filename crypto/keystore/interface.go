package keystore

import (
	"errors"
	"time"
)

var (
	// ErrKeyPairNotFound is returned when no key pair exists for an alias.
	ErrKeyPairNotFound = errors.New("key pair not found")
	// ErrKeyNotFound is returned by a LegacyFacility when no raw key is stored for an alias.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidKeySize is returned when key material does not fit the operation.
	ErrInvalidKeySize = errors.New("invalid key size")
)

// KeyFacility is the platform's asymmetric key facility.
//
// Key pairs are addressed by alias and persisted by the operating environment.
// Private key material never leaves the facility: callers only ever see a
// KeyPair handle and ask the facility to decrypt on their behalf.
type KeyFacility interface {
	// HasModernFacility reports whether asymmetric key pairs are usable on this platform.
	HasModernFacility() bool
	// GetOrCreateKeyPair returns the key pair for alias, creating it with the
	// given validity window if it does not exist yet.
	GetOrCreateKeyPair(alias string, notBefore, notAfter time.Time) (*KeyPair, error)
	// PublicEncrypt encrypts a single block with the public half of the pair.
	PublicEncrypt(pair *KeyPair, plaintext []byte) ([]byte, error)
	// PrivateDecrypt decrypts a single block with the private half of the pair.
	PrivateDecrypt(pair *KeyPair, ciphertext []byte) ([]byte, error)
	// SecureRandomBytes returns n bytes from a cryptographically secure source.
	SecureRandomBytes(n int) ([]byte, error)
	// ListAliases returns the aliases that currently have a key pair.
	ListAliases() ([]string, error)
}

// LegacyState describes whether the legacy credential facility can be used.
type LegacyState int

const (
	// LegacyUninitialized means no device unlock credential is configured.
	LegacyUninitialized LegacyState = iota
	// LegacyInitialized means the facility is unlocked and usable.
	LegacyInitialized
)

func (s LegacyState) String() string {
	switch s {
	case LegacyInitialized:
		return "initialized"
	default:
		return "uninitialized"
	}
}

// LegacyFacility stores raw key bytes directly in an OS-protected store.
// It is the fallback when no KeyFacility is available.
type LegacyFacility interface {
	State() LegacyState
	// Get returns ErrKeyNotFound when nothing is stored for alias.
	Get(alias string) ([]byte, error)
	Put(alias string, key []byte) error
	// LastErrorDescription describes the most recent failure of the underlying store.
	LastErrorDescription() string
}
