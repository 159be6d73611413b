package keystore

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// legacyKeyPrefix namespaces raw data keys inside the legacy keyring.
const legacyKeyPrefix = "rawkey:"

// KeyringLegacyFacility implements LegacyFacility with a passphrase-protected
// keyring, typically the encrypted file backend.
//
// The keyring is opened lazily. If it cannot be opened (no passphrase
// configured, no backend available) the facility reports LegacyUninitialized
// and remembers the error for LastErrorDescription.
type KeyringLegacyFacility struct {
	open func() (keyring.Keyring, error)

	mu      sync.Mutex
	ring    keyring.Keyring
	lastErr error
}

// NewKeyringLegacyFacility creates a legacy facility that opens its keyring with open.
func NewKeyringLegacyFacility(open func() (keyring.Keyring, error)) *KeyringLegacyFacility {
	return &KeyringLegacyFacility{open: open}
}

// State opens the keyring if needed and reports whether it is usable.
func (l *KeyringLegacyFacility) State() LegacyState {
	if _, err := l.keyring(); err != nil {
		return LegacyUninitialized
	}
	return LegacyInitialized
}

// Get returns the raw key stored for alias.
func (l *KeyringLegacyFacility) Get(alias string) ([]byte, error) {
	ring, err := l.keyring()
	if err != nil {
		return nil, err
	}
	item, err := ring.Get(legacyKeyPrefix + alias)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, alias)
	}
	if err != nil {
		return nil, l.record(fmt.Errorf("failed to get key from keyring: %w", err))
	}
	return append([]byte(nil), item.Data...), nil
}

// Put stores key for alias.
func (l *KeyringLegacyFacility) Put(alias string, key []byte) error {
	ring, err := l.keyring()
	if err != nil {
		return err
	}
	err = ring.Set(keyring.Item{
		Key:   legacyKeyPrefix + alias,
		Data:  append([]byte(nil), key...),
		Label: "keystorecipher data key " + alias,
	})
	if err != nil {
		return l.record(fmt.Errorf("failed to store key in keyring: %w", err))
	}
	return nil
}

// ListAliases returns all aliases with a stored raw key.
func (l *KeyringLegacyFacility) ListAliases() ([]string, error) {
	ring, err := l.keyring()
	if err != nil {
		return nil, err
	}
	keys, err := ring.Keys()
	if err != nil {
		return nil, l.record(fmt.Errorf("failed to list keys from keyring: %w", err))
	}
	aliases := make([]string, 0, len(keys))
	for _, key := range keys {
		if alias, ok := strings.CutPrefix(key, legacyKeyPrefix); ok {
			aliases = append(aliases, alias)
		}
	}
	return aliases, nil
}

// LastErrorDescription returns the most recent keyring error, or "" if none.
func (l *KeyringLegacyFacility) LastErrorDescription() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastErr == nil {
		return ""
	}
	return l.lastErr.Error()
}

func (l *KeyringLegacyFacility) keyring() (keyring.Keyring, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ring != nil {
		return l.ring, nil
	}
	if l.open == nil {
		l.lastErr = errors.New("no legacy keyring configured")
		return nil, l.lastErr
	}
	ring, err := l.open()
	if err != nil {
		l.lastErr = fmt.Errorf("failed to open legacy keyring: %w", err)
		return nil, l.lastErr
	}
	l.ring = ring
	return ring, nil
}

func (l *KeyringLegacyFacility) record(err error) error {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
	return err
}
