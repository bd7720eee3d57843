// Package cryptopkg protects card numbers at rest.
//
// Encrypt and Decrypt run AES-256-GCM with a per-process key; Mask derives the
// non-reversible display form. The raw card number must never leave this
// boundary in clear form except through Decrypt.
package cryptopkg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/rs/zerolog"
)

// ErrCrypto indicates that encryption or decryption failed. The operation is
// fatal for the caller; no partial plaintext is ever returned.
var ErrCrypto = errors.New("crypto operation failed")

const (
	keySize   = 32
	nonceSize = 12
)

// Service holds the process lifetime AES key and performs card number
// encryption, decryption and masking.
type Service struct {
	aead cipher.AEAD
}

// New creates a Service from an optional base64 encoded 32-byte key.
//
// When keyB64 is empty a fresh random key is generated: ciphertext produced
// with it does not survive a restart. This is an accepted operational
// constraint for ephemeral deployments, so it is logged loudly rather than
// hidden.
func New(keyB64 string, logger zerolog.Logger) (*Service, error) {
	var key []byte

	if keyB64 == "" {
		key = make([]byte, keySize)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}

		logger.Warn().Msg("card encryption key not configured, generated an ephemeral one")
	} else {
		decoded, err := base64.StdEncoding.DecodeString(keyB64)
		if err != nil {
			return nil, err
		}

		if len(decoded) != keySize {
			return nil, errors.New("card encryption key must decode to 32 bytes")
		}

		key = decoded
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Service{aead: aead}, nil
}

// Encrypt seals the plaintext under a fresh random nonce and returns
// base64(nonce || ciphertext || tag). Two calls with the same plaintext
// produce different tokens.
func (s *Service) Encrypt(plain string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", ErrCrypto
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plain), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It returns ErrCrypto if the token is malformed,
// the authentication tag does not verify, or the key does not match.
func (s *Service) Decrypt(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", ErrCrypto
	}

	if len(raw) < nonceSize {
		return "", ErrCrypto
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]

	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrCrypto
	}

	return string(plain), nil
}

// Mask returns the display form of a card number: the fixed pattern plus the
// last 4 characters. It never touches the key and is safe to log.
func Mask(plain string) string {
	if len(plain) < 4 {
		return "****"
	}

	return "**** **** **** " + plain[len(plain)-4:]
}
