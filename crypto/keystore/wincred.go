//go:build windows
// +build windows

package keystore

import "github.com/99designs/keyring"

func init() {
	RegisterFacility("windows", newWinCredFacility)
}

// newWinCredFacility opens the Windows Credential Manager.
func newWinCredFacility(opts Options) (KeyFacility, error) {
	return openFacility(opts, keyring.Config{
		AllowedBackends: []keyring.BackendType{keyring.WinCredBackend},
		WinCredPrefix:   opts.serviceName(),
	})
}
