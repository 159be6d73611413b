package crypto

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyUnavailable means no usable data key could be obtained or created for an alias.
	ErrKeyUnavailable = errors.New("key unavailable")
	// ErrKeyPairUnavailable means the platform key pair is missing or could not unwrap the record.
	ErrKeyPairUnavailable = errors.New("key pair unavailable")
	// ErrCredentialNotConfigured means the legacy facility has no unlock credential.
	// It is fatal: the process is terminated after the credential setup flow starts.
	ErrCredentialNotConfigured = errors.New("device credential not configured")
	// ErrMalformedInput means a payload is not valid Base64 or is too short.
	ErrMalformedInput = errors.New("malformed input")
	// ErrEmptyAlias is returned for an empty alias.
	ErrEmptyAlias = errors.New("alias cannot be empty")
	// ErrInvalidAlias is returned for an alias that is not valid UTF-8.
	ErrInvalidAlias = errors.New("alias is not valid UTF-8")
)

// LegacyStoreError reports a failed write to the legacy facility together with
// the facility's own diagnostic text.
type LegacyStoreError struct {
	Alias      string
	Diagnostic string
	Err        error
}

func (e *LegacyStoreError) Error() string {
	return fmt.Sprintf("legacy keystore failed to store key for %s: %s", e.Alias, e.Diagnostic)
}

func (e *LegacyStoreError) Unwrap() error {
	return e.Err
}
