package crypto

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/joncooperworks/keystorecipher/crypto/keystore"
	"github.com/joncooperworks/keystorecipher/prefs"
)

// KeyBackend is the path used to obtain data keys: either ModernBackend or
// LegacyBackend. It is chosen once when the manager is built.
type KeyBackend interface {
	// Name identifies the backend in logs and status output.
	Name() string
	getKey(alias string) (SymmetricKey, error)
}

// ModernBackend wraps data keys with the platform key pair and keeps the
// wrapped record in a SecretKeyStore.
type ModernBackend struct {
	Store   *SecretKeyStore
	Wrapper *KeyWrapper
	Random  RandomSource
	logger  *slog.Logger
}

func (b *ModernBackend) Name() string { return "modern" }

func (b *ModernBackend) getKey(alias string) (SymmetricKey, error) {
	record, ok, err := b.Store.Load(alias)
	if err != nil {
		return nil, err
	}
	if ok {
		return b.Wrapper.Unwrap(record, alias)
	}

	key, err := newSymmetricKey(b.Random)
	if err != nil {
		return nil, err
	}
	record, err = b.Wrapper.Wrap(key, alias)
	key.Wipe()
	if err != nil {
		return nil, err
	}
	if err := b.Store.Store(alias, record); err != nil {
		return nil, err
	}
	b.logger.Info("generated wrapped data key", "alias", alias)

	// Read back what was committed and unwrap that, so a record that cannot
	// round-trip is caught at creation time.
	record, ok, err = b.Store.Load(alias)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("wrapped key for %s missing after store", alias)
	}
	return b.Wrapper.Unwrap(record, alias)
}

// LegacyBackend keeps raw data keys in the legacy facility.
type LegacyBackend struct {
	Adapter *LegacyKeyStoreAdapter
}

func (b *LegacyBackend) Name() string { return "legacy" }

func (b *LegacyBackend) getKey(alias string) (SymmetricKey, error) {
	return b.Adapter.GetOrCreate(alias)
}

// ManagerConfig holds the collaborators of an EnvelopeKeyManager.
type ManagerConfig struct {
	// Facility is the modern key facility. It may be nil when the platform has none.
	Facility keystore.KeyFacility
	// Store persists wrapped key records for the modern path.
	Store prefs.Store
	// Legacy is the fallback facility used when Facility is nil or unavailable.
	Legacy keystore.LegacyFacility
	// CredentialSetup is launched when the legacy facility has no credential.
	CredentialSetup CredentialSetup
	// Terminate ends the process after a fatal credential failure. Defaults to os.Exit.
	Terminate func(code int)
	Logger    *slog.Logger
}

// EnvelopeKeyManager produces the data key for an alias, creating it on first use.
//
// First use of an alias is not serialized: callers that may race on a new
// alias must hold their own lock around the first GetKey for it.
type EnvelopeKeyManager struct {
	backend   KeyBackend
	terminate func(code int)
	logger    *slog.Logger
}

// NewEnvelopeKeyManager selects the backend from the platform capability and
// returns a manager bound to it.
func NewEnvelopeKeyManager(cfg ManagerConfig) (*EnvelopeKeyManager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	terminate := cfg.Terminate
	if terminate == nil {
		terminate = os.Exit
	}

	backend, err := selectBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("selected key backend", "backend", backend.Name())

	return &EnvelopeKeyManager{
		backend:   backend,
		terminate: terminate,
		logger:    logger,
	}, nil
}

func selectBackend(cfg ManagerConfig, logger *slog.Logger) (KeyBackend, error) {
	if cfg.Facility != nil && cfg.Facility.HasModernFacility() {
		if cfg.Store == nil {
			return nil, errors.New("modern key facility requires a preferences store")
		}
		return &ModernBackend{
			Store:   NewSecretKeyStore(cfg.Store),
			Wrapper: NewKeyWrapper(cfg.Facility),
			Random:  cfg.Facility,
			logger:  logger,
		}, nil
	}
	if cfg.Legacy == nil {
		return nil, errors.New("no modern key facility and no legacy facility configured")
	}
	var random RandomSource = SystemRandom{}
	if cfg.Facility != nil {
		random = cfg.Facility
	}
	return &LegacyBackend{
		Adapter: NewLegacyKeyStoreAdapter(cfg.Legacy, random, cfg.CredentialSetup, logger),
	}, nil
}

// Backend returns the backend chosen at construction.
func (m *EnvelopeKeyManager) Backend() KeyBackend {
	return m.backend
}

// GetKey returns the data key for alias.
//
// Every failure is wrapped in ErrKeyUnavailable, with the cause kept for
// errors.Is. ErrCredentialNotConfigured is fatal: the process is terminated
// before GetKey returns.
func (m *EnvelopeKeyManager) GetKey(alias string) (SymmetricKey, error) {
	if alias == "" {
		return nil, fmt.Errorf("%w: %w", ErrKeyUnavailable, ErrEmptyAlias)
	}
	if !utf8.ValidString(alias) {
		return nil, fmt.Errorf("%w: %w", ErrKeyUnavailable, ErrInvalidAlias)
	}

	key, err := m.backend.getKey(alias)
	if errors.Is(err, ErrCredentialNotConfigured) {
		m.logger.Error("device credential not configured, terminating", "alias", alias)
		m.terminate(1)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyUnavailable, alias, err)
	}
	return key, nil
}
