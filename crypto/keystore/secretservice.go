//go:build linux
// +build linux

package keystore

import "github.com/99designs/keyring"

func init() {
	RegisterFacility("linux", newSecretServiceFacility)
}

// newSecretServiceFacility opens libsecret, falling back to the kernel keyring.
func newSecretServiceFacility(opts Options) (KeyFacility, error) {
	return openFacility(opts, keyring.Config{
		AllowedBackends: []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KeyCtlBackend,
		},
		KeyCtlScope: "user",
	})
}
