package crypto

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/joncooperworks/keystorecipher/crypto/keystore"
)

func TestKeyWrapper_WrapUnwrap(t *testing.T) {
	facility := keystore.NewMockFacility()
	w := NewKeyWrapper(facility)

	key := SymmetricKey(bytes.Repeat([]byte{0x5A}, SymmetricKeySize))
	record, err := w.Wrap(key, "wrap")
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	got, err := w.Unwrap(record, "wrap")
	if err != nil {
		t.Fatalf("Unwrap() error = %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Error("Unwrap() did not return the wrapped key")
	}

	// Wrapping is randomized, the same key must not yield the same record.
	again, err := w.Wrap(key, "wrap")
	if err != nil {
		t.Fatalf("second Wrap() error = %v", err)
	}
	if again == record {
		t.Error("two wraps of the same key produced identical records")
	}
	if facility.GenerateCalls != 1 {
		t.Errorf("GenerateCalls = %d, want 1", facility.GenerateCalls)
	}
}

func TestKeyWrapper_ValidityWindow(t *testing.T) {
	facility := keystore.NewMockFacility()
	w := NewKeyWrapper(facility)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	if _, err := w.Wrap(make(SymmetricKey, SymmetricKeySize), "window"); err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	pair, err := facility.GetOrCreateKeyPair("window", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetOrCreateKeyPair() error = %v", err)
	}
	if !pair.NotBefore.Equal(fixed) {
		t.Errorf("NotBefore = %v, want %v", pair.NotBefore, fixed)
	}
	if want := fixed.AddDate(1, 0, 0); !pair.NotAfter.Equal(want) {
		t.Errorf("NotAfter = %v, want %v", pair.NotAfter, want)
	}
	if pair.Subject.CommonName != "window" {
		t.Errorf("Subject.CommonName = %q, want %q", pair.Subject.CommonName, "window")
	}
}

func TestKeyWrapper_RejectsOversizedKey(t *testing.T) {
	w := NewKeyWrapper(keystore.NewMockFacility())

	tests := []struct {
		name string
		key  SymmetricKey
	}{
		{"empty", SymmetricKey{}},
		{"larger than modulus allows", make(SymmetricKey, 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.Wrap(tt.key, "oversized"); !errors.Is(err, keystore.ErrInvalidKeySize) {
				t.Errorf("Wrap() error = %v, want ErrInvalidKeySize", err)
			}
		})
	}
}

func TestKeyWrapper_UnwrapFailures(t *testing.T) {
	facility := keystore.NewMockFacility()
	w := NewKeyWrapper(facility)

	record, err := w.Wrap(make(SymmetricKey, SymmetricKeySize), "owner")
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	t.Run("other alias", func(t *testing.T) {
		if _, err := w.Unwrap(record, "intruder"); !errors.Is(err, ErrKeyPairUnavailable) {
			t.Errorf("Unwrap() error = %v, want ErrKeyPairUnavailable", err)
		}
	})

	t.Run("bad base64", func(t *testing.T) {
		if _, err := w.Unwrap("@@@", "owner"); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("Unwrap() error = %v, want ErrMalformedInput", err)
		}
	})

	t.Run("wrong length key inside record", func(t *testing.T) {
		long, err := w.Wrap(make(SymmetricKey, 32), "owner")
		if err != nil {
			t.Fatalf("Wrap() error = %v", err)
		}
		if _, err := w.Unwrap(long, "owner"); !errors.Is(err, ErrKeyPairUnavailable) {
			t.Errorf("Unwrap() error = %v, want ErrKeyPairUnavailable", err)
		}
	})

	t.Run("facility failure", func(t *testing.T) {
		facility.DecryptErr = errors.New("hardware keystore unavailable")
		defer func() { facility.DecryptErr = nil }()
		if _, err := w.Unwrap(record, "owner"); !errors.Is(err, ErrKeyPairUnavailable) {
			t.Errorf("Unwrap() error = %v, want ErrKeyPairUnavailable", err)
		}
	})
}
