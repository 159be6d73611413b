package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every variable at a clean state for one test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)
	for _, key := range []string{
		EnvConfigPath, EnvServiceName, EnvKeychainName, EnvBackend,
		EnvPrefsPath, EnvLegacyDir, EnvLegacyPassphrase, EnvKeyPairBits,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "keystorecipher", cfg.ServiceName)
	assert.Equal(t, BackendAuto, cfg.Backend)
	assert.Equal(t, 2048, cfg.KeyPairBits)
	assert.Equal(t, "prefs.toml", filepath.Base(cfg.PrefsPath))
	assert.Equal(t, "legacy", filepath.Base(cfg.LegacyDir))
	assert.Empty(t, cfg.LegacyPassphrase)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
service_name = "tokens"
keychain_name = "tokens-keychain"
backend = "legacy"
prefs_path = "/var/lib/tokens/prefs.toml"
key_pair_bits = 3072
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tokens", cfg.ServiceName)
	assert.Equal(t, "tokens-keychain", cfg.KeychainName)
	assert.Equal(t, BackendLegacy, cfg.Backend)
	assert.Equal(t, "/var/lib/tokens/prefs.toml", cfg.PrefsPath)
	assert.Equal(t, 3072, cfg.KeyPairBits)

	opts := cfg.KeystoreOptions()
	assert.Equal(t, "tokens", opts.ServiceName)
	assert.Equal(t, "tokens-keychain", opts.KeychainName)
	assert.Equal(t, 3072, opts.KeyPairBits)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "from-env.toml")
	require.NoError(t, os.WriteFile(path, []byte(`service_name = "from-env"`), 0600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ServiceName)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`backend = "modern"`), 0600))

	t.Setenv(EnvBackend, "legacy")
	t.Setenv(EnvLegacyPassphrase, "hunter2")
	t.Setenv(EnvKeyPairBits, "4096")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendLegacy, cfg.Backend)
	assert.Equal(t, "hunter2", cfg.LegacyPassphrase)
	assert.Equal(t, 4096, cfg.KeyPairBits)
	assert.Equal(t, "hunter2", cfg.KeystoreOptions().LegacyPassphrase)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "unknown backend", file: `backend = "tpm"`},
		{name: "small key", file: `key_pair_bits = 1024`},
		{name: "bad bits env", env: map[string]string{EnvKeyPairBits: "lots"}},
		{name: "empty service", env: map[string]string{EnvServiceName: ""}},
		{name: "broken toml", file: `backend = `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.file), 0600))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestPassphraseNotReadFromFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`LegacyPassphrase = "leaked"`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.LegacyPassphrase)
}
