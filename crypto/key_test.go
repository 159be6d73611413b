package crypto

import (
	"errors"
	"testing"
)

func TestSymmetricKey_Wipe(t *testing.T) {
	key := make(SymmetricKey, SymmetricKeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}

	key.Wipe()

	for i, b := range key {
		if b != 0 {
			t.Errorf("byte at index %d should be 0, got %d", i, b)
		}
	}

	var empty SymmetricKey
	empty.Wipe() // must not panic
}

func TestNewSymmetricKey(t *testing.T) {
	tests := []struct {
		name    string
		random  RandomSource
		wantErr bool
	}{
		{"system random", SystemRandom{}, false},
		{"short source", fixedRandom{b: make([]byte, SymmetricKeySize-1)}, true},
		{"failing source", failingRandom{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := newSymmetricKey(tt.random)
			if tt.wantErr {
				if err == nil {
					t.Fatal("newSymmetricKey() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("newSymmetricKey() error = %v", err)
			}
			if len(key) != SymmetricKeySize {
				t.Errorf("key length = %d, want %d", len(key), SymmetricKeySize)
			}
		})
	}
}

type failingRandom struct{}

func (failingRandom) SecureRandomBytes(int) ([]byte, error) {
	return nil, errors.New("entropy exhausted")
}
