package keystore

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/99designs/keyring"
)

// DefaultServiceName is the keyring service used when Options leaves it empty.
const DefaultServiceName = "keystorecipher"

// ErrNoCredential is returned when the legacy keyring has no unlock passphrase.
var ErrNoCredential = errors.New("no unlock credential configured")

// Options configures the platform facilities.
type Options struct {
	// ServiceName is the keyring service that namespaces all items.
	ServiceName string
	// KeychainName selects a macOS keychain; empty means the login keychain.
	KeychainName string
	// KeyPairBits is the RSA modulus size for new key pairs.
	KeyPairBits int
	// LegacyDir is the directory of the encrypted file keyring used by the legacy path.
	LegacyDir string
	// LegacyPassphrase unlocks the legacy file keyring. Empty means no
	// credential has been set up.
	LegacyPassphrase string
}

func (o Options) serviceName() string {
	if o.ServiceName == "" {
		return DefaultServiceName
	}
	return o.ServiceName
}

// NewFacility creates the modern key facility for the current platform.
// Uses the registry to find the appropriate factory for runtime.GOOS.
func NewFacility(opts Options) (KeyFacility, error) {
	factory, err := GetFacilityFactory(runtime.GOOS)
	if err != nil {
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return factory(opts)
}

// NewLegacyFacility creates the legacy facility backed by an encrypted file keyring.
// The keyring is not opened until first use.
func NewLegacyFacility(opts Options) *KeyringLegacyFacility {
	return NewKeyringLegacyFacility(func() (keyring.Keyring, error) {
		if opts.LegacyPassphrase == "" {
			return nil, ErrNoCredential
		}
		return keyring.Open(keyring.Config{
			ServiceName:      opts.serviceName(),
			AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
			FileDir:          opts.LegacyDir,
			FilePasswordFunc: keyring.FixedStringPrompt(opts.LegacyPassphrase),
		})
	})
}

// openFacility opens a keyring restricted to backends and wraps it in a KeyringFacility.
func openFacility(opts Options, cfg keyring.Config) (KeyFacility, error) {
	cfg.ServiceName = opts.serviceName()
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewKeyringFacility(ring, opts.KeyPairBits), nil
}
