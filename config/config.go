// Package config loads keystorecipher settings from an optional TOML file
// and KEYSTORECIPHER_* environment variables. Environment values win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/joncooperworks/keystorecipher/crypto/keystore"
)

// Backend selects how data keys are protected.
type Backend string

const (
	// BackendAuto uses the platform key facility when one is available and
	// falls back to the legacy keyring otherwise.
	BackendAuto Backend = "auto"
	// BackendModern requires the platform key facility.
	BackendModern Backend = "modern"
	// BackendLegacy always uses the legacy keyring.
	BackendLegacy Backend = "legacy"
)

// Environment variable names.
const (
	EnvConfigPath       = "KEYSTORECIPHER_CONFIG"
	EnvServiceName      = "KEYSTORECIPHER_SERVICE"
	EnvKeychainName     = "KEYSTORECIPHER_KEYCHAIN"
	EnvBackend          = "KEYSTORECIPHER_BACKEND"
	EnvPrefsPath        = "KEYSTORECIPHER_PREFS"
	EnvLegacyDir        = "KEYSTORECIPHER_LEGACY_DIR"
	EnvLegacyPassphrase = "KEYSTORECIPHER_LEGACY_PASSPHRASE"
	EnvKeyPairBits      = "KEYSTORECIPHER_KEY_BITS"
)

const minKeyPairBits = 2048

// Config holds all settings.
type Config struct {
	ServiceName  string  `toml:"service_name"`
	KeychainName string  `toml:"keychain_name"`
	Backend      Backend `toml:"backend"`
	PrefsPath    string  `toml:"prefs_path"`
	LegacyDir    string  `toml:"legacy_dir"`
	KeyPairBits  int     `toml:"key_pair_bits"`

	// LegacyPassphrase is only read from the environment so it never ends
	// up in a config file.
	LegacyPassphrase string `toml:"-"`
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) Config {
	return Config{
		ServiceName: keystore.DefaultServiceName,
		Backend:     BackendAuto,
		PrefsPath:   filepath.Join(dir, "prefs.toml"),
		LegacyDir:   filepath.Join(dir, "legacy"),
		KeyPairBits: keystore.DefaultKeyPairBits,
	}
}

// DefaultDir is the per-user configuration directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "keystorecipher"), nil
}

// Load builds the configuration. path names a TOML file; when empty the
// KEYSTORECIPHER_CONFIG variable is consulted and then <DefaultDir>/config.toml.
// A missing file is not an error.
func Load(path string) (Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return Config{}, err
	}
	cfg := Default(dir)

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString(EnvServiceName, &c.ServiceName)
	setString(EnvKeychainName, &c.KeychainName)
	setString(EnvPrefsPath, &c.PrefsPath)
	setString(EnvLegacyDir, &c.LegacyDir)
	setString(EnvLegacyPassphrase, &c.LegacyPassphrase)

	if v, ok := os.LookupEnv(EnvBackend); ok {
		c.Backend = Backend(v)
	}
	if v, ok := os.LookupEnv(EnvKeyPairBits); ok {
		bits, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvKeyPairBits, err)
		}
		c.KeyPairBits = bits
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendModern, BackendLegacy:
	default:
		return fmt.Errorf("unknown backend %q (want auto, modern or legacy)", c.Backend)
	}
	if c.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}
	if c.PrefsPath == "" {
		return errors.New("prefs path cannot be empty")
	}
	if c.KeyPairBits < minKeyPairBits {
		return fmt.Errorf("key pair size %d is below the %d bit minimum", c.KeyPairBits, minKeyPairBits)
	}
	return nil
}

// KeystoreOptions converts the configuration into facility options.
func (c Config) KeystoreOptions() keystore.Options {
	return keystore.Options{
		ServiceName:      c.ServiceName,
		KeychainName:     c.KeychainName,
		KeyPairBits:      c.KeyPairBits,
		LegacyDir:        c.LegacyDir,
		LegacyPassphrase: c.LegacyPassphrase,
	}
}
