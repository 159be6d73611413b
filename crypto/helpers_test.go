package crypto

import (
	"io"
	"log/slog"
	"testing"

	"github.com/joncooperworks/keystorecipher/crypto/keystore"
	"github.com/joncooperworks/keystorecipher/prefs"
)

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type modernFixture struct {
	facility *keystore.MockFacility
	store    *prefs.MemoryStore
	manager  *EnvelopeKeyManager
	cipher   *StringCipher
}

func newModernFixture(t *testing.T) *modernFixture {
	t.Helper()
	facility := keystore.NewMockFacility()
	store := prefs.NewMemoryStore()
	terminate := func(code int) {
		t.Fatalf("unexpected terminate(%d) on modern path", code)
	}
	manager, err := NewEnvelopeKeyManager(ManagerConfig{
		Facility:  facility,
		Store:     store,
		Terminate: terminate,
		Logger:    discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewEnvelopeKeyManager() error = %v", err)
	}
	return &modernFixture{
		facility: facility,
		store:    store,
		manager:  manager,
		cipher:   NewStringCipher(manager, facility, discardLogger()),
	}
}

type legacyFixture struct {
	legacy     *keystore.MockLegacyFacility
	manager    *EnvelopeKeyManager
	cipher     *StringCipher
	setupCalls int
	terminated []int
}

func newLegacyFixture(t *testing.T, uninitialized bool) *legacyFixture {
	t.Helper()
	f := &legacyFixture{legacy: keystore.NewMockLegacyFacility()}
	f.legacy.Uninitialized = uninitialized

	facility := keystore.NewMockFacility()
	facility.Unavailable = true

	setup := CredentialSetupFunc(func() error {
		f.setupCalls++
		return nil
	})
	terminate := func(code int) {
		f.terminated = append(f.terminated, code)
	}
	manager, err := NewEnvelopeKeyManager(ManagerConfig{
		Facility:        facility,
		Store:           prefs.NewMemoryStore(),
		Legacy:          f.legacy,
		CredentialSetup: setup,
		Terminate:       terminate,
		Logger:          discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewEnvelopeKeyManager() error = %v", err)
	}
	f.manager = manager
	f.cipher = NewStringCipher(manager, nil, discardLogger())
	return f
}
