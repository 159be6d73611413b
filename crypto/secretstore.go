package crypto

import (
	"fmt"

	"github.com/joncooperworks/keystorecipher/prefs"
)

// Namespace is the preferences namespace holding wrapped key records.
const Namespace = "KeyStoreCipher"

// WrappedKeyRecord is the Base64 text of a wrapped data key.
type WrappedKeyRecord string

// SecretKeyStore persists one WrappedKeyRecord per alias.
// Records are stored verbatim and never rewritten by this package.
type SecretKeyStore struct {
	store prefs.Store
}

// NewSecretKeyStore creates a SecretKeyStore on top of store.
func NewSecretKeyStore(store prefs.Store) *SecretKeyStore {
	return &SecretKeyStore{store: store}
}

// Load returns the record for alias and whether one exists.
func (s *SecretKeyStore) Load(alias string) (WrappedKeyRecord, bool, error) {
	v, ok, err := s.store.GetString(Namespace, alias)
	if err != nil {
		return "", false, fmt.Errorf("failed to load wrapped key for %s: %w", alias, err)
	}
	if !ok || v == "" {
		return "", false, nil
	}
	return WrappedKeyRecord(v), true, nil
}

// Store durably saves record for alias.
func (s *SecretKeyStore) Store(alias string, record WrappedKeyRecord) error {
	if err := s.store.PutString(Namespace, alias, string(record)); err != nil {
		return fmt.Errorf("failed to store wrapped key for %s: %w", alias, err)
	}
	return nil
}
