package crypto

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/joncooperworks/keystorecipher/crypto/keystore"
)

// keyPairValidity is how long a newly created key pair is valid.
const keyPairValidity = 1 // years

// KeyWrapper wraps and unwraps data keys with the platform key pair of an alias.
type KeyWrapper struct {
	facility keystore.KeyFacility
	now      func() time.Time
}

// NewKeyWrapper creates a KeyWrapper using facility.
func NewKeyWrapper(facility keystore.KeyFacility) *KeyWrapper {
	return &KeyWrapper{facility: facility, now: time.Now}
}

// Wrap encrypts key with the public half of alias's key pair and returns it as Base64.
// The key pair is created on first use, valid from now for one year.
func (w *KeyWrapper) Wrap(key SymmetricKey, alias string) (WrappedKeyRecord, error) {
	pair, err := w.keyPair(alias)
	if err != nil {
		return "", err
	}
	if len(key) == 0 || len(key) > pair.MaxWrapSize() {
		return "", fmt.Errorf("%w: %d byte key does not fit a %d byte wrap block",
			keystore.ErrInvalidKeySize, len(key), pair.MaxWrapSize())
	}

	wrapped, err := w.facility.PublicEncrypt(pair, key)
	if err != nil {
		return "", fmt.Errorf("%w: wrap failed for %s: %w", ErrKeyPairUnavailable, alias, err)
	}
	return WrappedKeyRecord(base64.StdEncoding.EncodeToString(wrapped)), nil
}

// Unwrap decrypts record with the private half of alias's key pair.
// A failed decryption is reported as ErrKeyPairUnavailable; the pair is never recreated here.
func (w *KeyWrapper) Unwrap(record WrappedKeyRecord, alias string) (SymmetricKey, error) {
	wrapped, err := base64.StdEncoding.DecodeString(string(record))
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped key for %s is not valid Base64", ErrMalformedInput, alias)
	}

	pair, err := w.keyPair(alias)
	if err != nil {
		return nil, err
	}

	key, err := w.facility.PrivateDecrypt(pair, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap failed for %s: %w", ErrKeyPairUnavailable, alias, err)
	}
	if len(key) != SymmetricKeySize {
		wipe(key)
		return nil, fmt.Errorf("%w: unwrapped key for %s has %d bytes", ErrKeyPairUnavailable, alias, len(key))
	}
	return key, nil
}

func (w *KeyWrapper) keyPair(alias string) (*keystore.KeyPair, error) {
	start := w.now()
	pair, err := w.facility.GetOrCreateKeyPair(alias, start, start.AddDate(keyPairValidity, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyPairUnavailable, alias, err)
	}
	return pair, nil
}
