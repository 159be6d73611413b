package keystore

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"time"
)

// DefaultKeyPairBits is the modulus size used for new key pairs.
const DefaultKeyPairBits = 2048

// oaepOverhead is the padding length of an RSA-OAEP block with SHA-256.
const oaepOverhead = 2*sha256.Size + 2

// KeyPair is an opaque handle to an asymmetric key pair held by a KeyFacility.
// It carries only public information.
type KeyPair struct {
	Alias     string
	Subject   pkix.Name
	NotBefore time.Time
	NotAfter  time.Time
	PublicKey *rsa.PublicKey
}

// MaxWrapSize is the largest plaintext that fits in a single wrap block.
func (p *KeyPair) MaxWrapSize() int {
	if p == nil || p.PublicKey == nil {
		return 0
	}
	return p.PublicKey.Size() - oaepOverhead
}

// SubjectForAlias derives the certificate subject used for alias.
func SubjectForAlias(alias string) pkix.Name {
	return pkix.Name{
		CommonName:   alias,
		Organization: []string{"keystorecipher"},
	}
}

// keyPairFromCertificate builds a handle from a stored self-signed certificate.
func keyPairFromCertificate(alias string, cert *x509.Certificate) (*KeyPair, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate for %s does not hold an RSA key", alias)
	}
	return &KeyPair{
		Alias:     alias,
		Subject:   cert.Subject,
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		PublicKey: pub,
	}, nil
}
