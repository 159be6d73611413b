package crypto

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joncooperworks/keystorecipher/crypto/keystore"
)

// CredentialSetup starts the OS flow that lets the user configure a device
// unlock credential.
type CredentialSetup interface {
	LaunchCredentialSetup() error
}

// CredentialSetupFunc adapts a function to CredentialSetup.
type CredentialSetupFunc func() error

func (f CredentialSetupFunc) LaunchCredentialSetup() error {
	return f()
}

// LegacyKeyStoreAdapter keeps raw data keys in the legacy facility.
// It is used only when the platform has no modern key facility.
type LegacyKeyStoreAdapter struct {
	facility keystore.LegacyFacility
	random   RandomSource
	setup    CredentialSetup
	logger   *slog.Logger
}

// NewLegacyKeyStoreAdapter creates an adapter. setup may be nil, in which case
// no credential setup flow is launched before failing.
func NewLegacyKeyStoreAdapter(facility keystore.LegacyFacility, random RandomSource, setup CredentialSetup, logger *slog.Logger) *LegacyKeyStoreAdapter {
	if random == nil {
		random = SystemRandom{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyKeyStoreAdapter{
		facility: facility,
		random:   random,
		setup:    setup,
		logger:   logger,
	}
}

// State reports the underlying facility state.
func (a *LegacyKeyStoreAdapter) State() keystore.LegacyState {
	return a.facility.State()
}

// GetOrCreate returns the data key for alias, generating and storing one if absent.
//
// If the facility is uninitialized the credential setup flow is launched and
// ErrCredentialNotConfigured is returned; callers must not continue.
func (a *LegacyKeyStoreAdapter) GetOrCreate(alias string) (SymmetricKey, error) {
	if a.facility.State() == keystore.LegacyUninitialized {
		if a.setup != nil {
			if err := a.setup.LaunchCredentialSetup(); err != nil {
				a.logger.Error("failed to launch credential setup", "error", err)
			}
		}
		return nil, ErrCredentialNotConfigured
	}

	key, err := a.facility.Get(alias)
	if err == nil {
		return validLegacyKey(alias, key)
	}
	if !errors.Is(err, keystore.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read legacy key for %s: %w", alias, err)
	}

	key, err = newSymmetricKey(a.random)
	if err != nil {
		return nil, err
	}
	err = a.facility.Put(alias, key)
	wipe(key)
	if err != nil {
		diagnostic := a.facility.LastErrorDescription()
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		return nil, &LegacyStoreError{Alias: alias, Diagnostic: diagnostic, Err: err}
	}
	a.logger.Info("generated legacy data key", "alias", alias)

	key, err = a.facility.Get(alias)
	if err != nil {
		return nil, fmt.Errorf("failed to read back legacy key for %s: %w", alias, err)
	}
	return validLegacyKey(alias, key)
}

func validLegacyKey(alias string, key []byte) (SymmetricKey, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: legacy key for %s has %d bytes", keystore.ErrInvalidKeySize, alias, len(key))
	}
	return key, nil
}
