package keystore

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockFacility is an in-memory implementation of KeyFacility for testing.
// It performs real RSA-OAEP operations and counts calls so tests can assert
// how often key pairs are generated and used.
// This is exported so it can be used by tests in other packages.
type MockFacility struct {
	mu    sync.Mutex
	pairs map[string]*mockPair
	bits  int

	// Unavailable makes HasModernFacility report false.
	Unavailable bool
	// DecryptErr, when set, is returned by every PrivateDecrypt call.
	DecryptErr error

	GenerateCalls int
	EncryptCalls  int
	DecryptCalls  int
	RandomCalls   int
}

type mockPair struct {
	handle     *KeyPair
	privateKey *rsa.PrivateKey
}

// NewMockFacility creates an empty in-memory facility using 1024-bit keys.
func NewMockFacility() *MockFacility {
	return &MockFacility{
		pairs: make(map[string]*mockPair),
		bits:  1024,
	}
}

func (m *MockFacility) HasModernFacility() bool {
	return !m.Unavailable
}

func (m *MockFacility) GetOrCreateKeyPair(alias string, notBefore, notAfter time.Time) (*KeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pairs[alias]; ok {
		return p.handle, nil
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, m.bits)
	if err != nil {
		return nil, err
	}
	m.GenerateCalls++
	p := &mockPair{
		handle: &KeyPair{
			Alias:     alias,
			Subject:   SubjectForAlias(alias),
			NotBefore: notBefore,
			NotAfter:  notAfter,
			PublicKey: &privateKey.PublicKey,
		},
		privateKey: privateKey,
	}
	m.pairs[alias] = p
	return p.handle, nil
}

func (m *MockFacility) PublicEncrypt(pair *KeyPair, plaintext []byte) ([]byte, error) {
	m.mu.Lock()
	m.EncryptCalls++
	m.mu.Unlock()

	if pair == nil || pair.PublicKey == nil {
		return nil, ErrKeyPairNotFound
	}
	if len(plaintext) > pair.MaxWrapSize() {
		return nil, ErrInvalidKeySize
	}
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pair.PublicKey, plaintext, nil)
}

func (m *MockFacility) PrivateDecrypt(pair *KeyPair, ciphertext []byte) ([]byte, error) {
	if pair == nil {
		return nil, ErrKeyPairNotFound
	}
	m.mu.Lock()
	m.DecryptCalls++
	p, ok := m.pairs[pair.Alias]
	decryptErr := m.DecryptErr
	m.mu.Unlock()

	if decryptErr != nil {
		return nil, decryptErr
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyPairNotFound, pair.Alias)
	}
	return rsa.DecryptOAEP(sha256.New(), nil, p.privateKey, ciphertext, nil)
}

func (m *MockFacility) SecureRandomBytes(n int) ([]byte, error) {
	m.mu.Lock()
	m.RandomCalls++
	m.mu.Unlock()
	return readRandom(rand.Reader, n)
}

func (m *MockFacility) ListAliases() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	aliases := make([]string, 0, len(m.pairs))
	for alias := range m.pairs {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases, nil
}

// ReplaceKeyPair discards the pair for alias and generates a fresh one,
// simulating the platform invalidating a key after a credential reset.
func (m *MockFacility) ReplaceKeyPair(alias string) error {
	m.mu.Lock()
	p, ok := m.pairs[alias]
	delete(m.pairs, alias)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyPairNotFound, alias)
	}
	_, err := m.GetOrCreateKeyPair(alias, p.handle.NotBefore, p.handle.NotAfter)
	return err
}

// MockLegacyFacility is an in-memory implementation of LegacyFacility for testing.
type MockLegacyFacility struct {
	mu   sync.Mutex
	keys map[string][]byte

	// Uninitialized makes State report LegacyUninitialized.
	Uninitialized bool
	// PutErr, when set, is returned by every Put call.
	PutErr error
	// ErrorDescription is returned by LastErrorDescription.
	ErrorDescription string

	GetCalls int
	PutCalls int
}

// NewMockLegacyFacility creates an initialized, empty legacy facility.
func NewMockLegacyFacility() *MockLegacyFacility {
	return &MockLegacyFacility{keys: make(map[string][]byte)}
}

func (m *MockLegacyFacility) State() LegacyState {
	if m.Uninitialized {
		return LegacyUninitialized
	}
	return LegacyInitialized
}

func (m *MockLegacyFacility) Get(alias string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	key, ok := m.keys[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, alias)
	}
	return append([]byte(nil), key...), nil
}

func (m *MockLegacyFacility) Put(alias string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.keys[alias] = append([]byte(nil), key...)
	return nil
}

func (m *MockLegacyFacility) LastErrorDescription() string {
	return m.ErrorDescription
}
