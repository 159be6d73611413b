package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// ivSize is the length of the random IV prefixed to every payload.
const ivSize = aes.BlockSize

// KeySource returns the data key for an alias. EnvelopeKeyManager implements it.
type KeySource interface {
	GetKey(alias string) (SymmetricKey, error)
}

// StringCipher encrypts and decrypts UTF-8 strings with per-alias data keys.
//
// Payload format (Base64, standard alphabet):
//
//	[iv:16][aes-128-cbc ciphertext, PKCS#7 padded]
type StringCipher struct {
	keys   KeySource
	random RandomSource
	logger *slog.Logger
}

// NewStringCipher creates a StringCipher. random supplies IVs; nil means crypto/rand.
func NewStringCipher(keys KeySource, random RandomSource, logger *slog.Logger) *StringCipher {
	if random == nil {
		random = SystemRandom{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StringCipher{keys: keys, random: random, logger: logger}
}

// Encrypt encrypts plaintext under alias. It reports false if the value could
// not be encrypted; the cause is logged, never returned.
func (c *StringCipher) Encrypt(plaintext, alias string) (string, bool) {
	payload, err := c.Seal(plaintext, alias)
	if err != nil {
		c.logger.Warn("encrypt failed", "alias", alias, "error", err)
		return "", false
	}
	return payload, true
}

// Decrypt recovers the plaintext of payload under alias. It reports false for
// any failure, without distinguishing a wrong key from garbled input.
func (c *StringCipher) Decrypt(payload, alias string) (string, bool) {
	plaintext, err := c.Open(payload, alias)
	if err != nil {
		c.logger.Warn("decrypt failed", "alias", alias, "error", err)
		return "", false
	}
	return plaintext, true
}

// Seal is Encrypt with the error kept.
func (c *StringCipher) Seal(plaintext, alias string) (string, error) {
	key, err := c.keys.GetKey(alias)
	if err != nil {
		return "", err
	}
	defer key.Wipe()

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv, err := c.random.SecureRandomBytes(ivSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("random source returned %d byte IV", len(iv))
	}

	padded := padPKCS7([]byte(plaintext), block.BlockSize())
	out := make([]byte, ivSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[ivSize:], padded)
	wipe(padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Open is Decrypt with the error kept.
func (c *StringCipher) Open(payload, alias string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: payload is not valid Base64", ErrMalformedInput)
	}
	// IV plus at least one whole block.
	if len(data) < ivSize+aes.BlockSize || (len(data)-ivSize)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: payload has invalid length %d", ErrMalformedInput, len(data))
	}

	key, err := c.keys.GetKey(alias)
	if err != nil {
		return "", err
	}
	defer key.Wipe()

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv, ciphertext := data[:ivSize], data[ivSize:]
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	defer wipe(padded)

	plaintext, err := unpadPKCS7(padded, block.BlockSize())
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", errors.New("decrypted value is not valid UTF-8")
	}
	return string(plaintext), nil
}

// padPKCS7 returns data followed by PKCS#7 padding, in a new slice.
func padPKCS7(data []byte, blockSize int) []byte {
	padding := blockSize - (len(data) % blockSize)
	out := make([]byte, len(data)+padding)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padding)
	}
	return out
}

var errBadPadding = errors.New("invalid padding")

// unpadPKCS7 strips PKCS#7 padding, checking every padding byte.
func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errBadPadding
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errBadPadding
	}
	want := make([]byte, padding)
	for i := range want {
		want[i] = byte(padding)
	}
	if subtle.ConstantTimeCompare(data[len(data)-padding:], want) != 1 {
		return nil, errBadPadding
	}
	return data[:len(data)-padding], nil
}
