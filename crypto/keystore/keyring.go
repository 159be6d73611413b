package keystore

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/99designs/keyring"
)

// keyPairPrefix namespaces key pair items inside a shared keyring service.
const keyPairPrefix = "keypair:"

// KeyringFacility implements KeyFacility on top of an OS keyring.
//
// Each key pair is stored as a single keyring item holding the PKCS#8 private
// key and a self-signed certificate that records the subject and validity
// window. The private key is only ever parsed inside PrivateDecrypt.
type KeyringFacility struct {
	ring keyring.Keyring
	bits int
	rand io.Reader
}

// NewKeyringFacility creates a facility backed by ring.
// bits selects the RSA modulus size for new pairs; zero means DefaultKeyPairBits.
func NewKeyringFacility(ring keyring.Keyring, bits int) *KeyringFacility {
	if bits == 0 {
		bits = DefaultKeyPairBits
	}
	return &KeyringFacility{ring: ring, bits: bits, rand: rand.Reader}
}

// HasModernFacility reports true once a keyring is attached.
func (k *KeyringFacility) HasModernFacility() bool {
	return k.ring != nil
}

// GetOrCreateKeyPair loads the pair for alias or generates a new one.
func (k *KeyringFacility) GetOrCreateKeyPair(alias string, notBefore, notAfter time.Time) (*KeyPair, error) {
	if alias == "" {
		return nil, errors.New("alias cannot be empty")
	}

	pair, err := k.loadKeyPair(alias)
	if err == nil {
		return pair, nil
	}
	if !errors.Is(err, ErrKeyPairNotFound) {
		return nil, err
	}

	privateKey, err := rsa.GenerateKey(k.rand, k.bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	serial, err := rand.Int(k.rand, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               SubjectForAlias(alias),
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment,
		BasicConstraintsValid: true,
	}
	certDER, err := x509.CreateCertificate(k.rand, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	privateKeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	defer zeroize(privateKeyBytes)

	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateKeyBytes})
	data = append(data, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})...)

	err = k.ring.Set(keyring.Item{
		Key:         keyPairPrefix + alias,
		Data:        data,
		Label:       "keystorecipher key pair " + alias,
		Description: "RSA key pair wrapping the data key for " + alias,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store key pair in keyring: %w", err)
	}

	return k.loadKeyPair(alias)
}

// PublicEncrypt encrypts plaintext with RSA-OAEP (SHA-256) under the pair's public key.
func (k *KeyringFacility) PublicEncrypt(pair *KeyPair, plaintext []byte) ([]byte, error) {
	if pair == nil || pair.PublicKey == nil {
		return nil, ErrKeyPairNotFound
	}
	if len(plaintext) > pair.MaxWrapSize() {
		return nil, ErrInvalidKeySize
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), k.rand, pair.PublicKey, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}
	return ciphertext, nil
}

// PrivateDecrypt decrypts ciphertext with the private key stored for pair.Alias.
func (k *KeyringFacility) PrivateDecrypt(pair *KeyPair, ciphertext []byte) ([]byte, error) {
	if pair == nil {
		return nil, ErrKeyPairNotFound
	}
	privateKey, _, err := k.readItem(pair.Alias)
	if err != nil {
		return nil, err
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), nil, privateKey, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// SecureRandomBytes reads n bytes from crypto/rand.
func (k *KeyringFacility) SecureRandomBytes(n int) ([]byte, error) {
	return readRandom(k.rand, n)
}

// ListAliases returns all aliases with a stored key pair.
func (k *KeyringFacility) ListAliases() ([]string, error) {
	keys, err := k.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys from keyring: %w", err)
	}
	aliases := make([]string, 0, len(keys))
	for _, key := range keys {
		if alias, ok := strings.CutPrefix(key, keyPairPrefix); ok {
			aliases = append(aliases, alias)
		}
	}
	return aliases, nil
}

func (k *KeyringFacility) loadKeyPair(alias string) (*KeyPair, error) {
	_, cert, err := k.readItem(alias)
	if err != nil {
		return nil, err
	}
	return keyPairFromCertificate(alias, cert)
}

// readItem parses the stored PEM blocks for alias.
func (k *KeyringFacility) readItem(alias string) (*rsa.PrivateKey, *x509.Certificate, error) {
	item, err := k.ring.Get(keyPairPrefix + alias)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrKeyPairNotFound, alias)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get key pair from keyring: %w", err)
	}

	var (
		privateKey *rsa.PrivateKey
		cert       *x509.Certificate
	)
	rest := item.Data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch block.Type {
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
			}
			rsaKey, ok := key.(*rsa.PrivateKey)
			if !ok {
				return nil, nil, fmt.Errorf("key is not RSA")
			}
			privateKey = rsaKey
		case "CERTIFICATE":
			cert, err = x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse certificate: %w", err)
			}
		}
	}

	if privateKey == nil || cert == nil {
		return nil, nil, fmt.Errorf("incomplete key pair item for %s", alias)
	}
	return privateKey, cert, nil
}

func readRandom(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid random length: %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}
