//go:build darwin
// +build darwin

package keystore

import "github.com/99designs/keyring"

func init() {
	RegisterFacility("darwin", newKeychainFacility)
}

// newKeychainFacility opens the macOS Keychain.
// An empty KeychainName uses the login keychain, which avoids extra password prompts.
func newKeychainFacility(opts Options) (KeyFacility, error) {
	return openFacility(opts, keyring.Config{
		AllowedBackends:          []keyring.BackendType{keyring.KeychainBackend},
		KeychainName:             opts.KeychainName,
		KeychainTrustApplication: true,
	})
}
