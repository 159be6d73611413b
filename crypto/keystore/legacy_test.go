package keystore

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/99designs/keyring"
)

func TestKeyringLegacyFacility_PutGet(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	facility := NewKeyringLegacyFacility(func() (keyring.Keyring, error) {
		return ring, nil
	})

	if got := facility.State(); got != LegacyInitialized {
		t.Fatalf("State() = %v, want %v", got, LegacyInitialized)
	}

	if _, err := facility.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrKeyNotFound", err)
	}

	key := bytes.Repeat([]byte{0xAB}, 16)
	if err := facility.Put("alias", key); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := facility.Get("alias")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Errorf("Get() = %x, want %x", got, key)
	}

	if desc := facility.LastErrorDescription(); desc != "" {
		t.Errorf("LastErrorDescription() = %q, want empty", desc)
	}

	// Items outside the raw key namespace are not aliases.
	if err := ring.Set(keyring.Item{Key: keyPairPrefix + "other", Data: []byte("x")}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	aliases, err := facility.ListAliases()
	if err != nil {
		t.Fatalf("ListAliases() error = %v", err)
	}
	if len(aliases) != 1 || aliases[0] != "alias" {
		t.Errorf("ListAliases() = %v, want [alias]", aliases)
	}
}

func TestKeyringLegacyFacility_Uninitialized(t *testing.T) {
	opened := 0
	facility := NewKeyringLegacyFacility(func() (keyring.Keyring, error) {
		opened++
		return nil, ErrNoCredential
	})

	if got := facility.State(); got != LegacyUninitialized {
		t.Fatalf("State() = %v, want %v", got, LegacyUninitialized)
	}
	if _, err := facility.Get("alias"); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Get() error = %v, want ErrNoCredential", err)
	}
	if err := facility.Put("alias", []byte("k")); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Put() error = %v, want ErrNoCredential", err)
	}
	if !strings.Contains(facility.LastErrorDescription(), ErrNoCredential.Error()) {
		t.Errorf("LastErrorDescription() = %q, want it to mention %q", facility.LastErrorDescription(), ErrNoCredential)
	}
	if opened != 3 {
		t.Errorf("open called %d times, want 3 (retried while unavailable)", opened)
	}
}

func TestNewLegacyFacility_NoPassphrase(t *testing.T) {
	facility := NewLegacyFacility(Options{LegacyDir: t.TempDir()})
	if got := facility.State(); got != LegacyUninitialized {
		t.Fatalf("State() = %v, want %v", got, LegacyUninitialized)
	}
}

func TestNewLegacyFacility_FileBackend(t *testing.T) {
	facility := NewLegacyFacility(Options{
		ServiceName:      "keystorecipher-test",
		LegacyDir:        t.TempDir(),
		LegacyPassphrase: "correct horse battery staple",
	})
	if got := facility.State(); got != LegacyInitialized {
		t.Fatalf("State() = %v, want %v (%s)", got, LegacyInitialized, facility.LastErrorDescription())
	}

	key := bytes.Repeat([]byte{0x01}, 16)
	if err := facility.Put("file-alias", key); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := facility.Get("file-alias")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Errorf("Get() = %x, want %x", got, key)
	}
}

func TestLegacyState_String(t *testing.T) {
	if LegacyInitialized.String() != "initialized" {
		t.Errorf("LegacyInitialized.String() = %q", LegacyInitialized.String())
	}
	if LegacyUninitialized.String() != "uninitialized" {
		t.Errorf("LegacyUninitialized.String() = %q", LegacyUninitialized.String())
	}
}
