package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const sealedPrefix = "sb1:"

// ErrSecretOpen is returned when a sealed value cannot be decrypted with the configured key.
var ErrSecretOpen = errors.New("secret: cannot open sealed value")

// Sealer encrypts small secrets (app secrets, OAuth tokens) before they are persisted.
// A Sealer built from an empty key passes values through unchanged.
type Sealer struct {
	key     [32]byte
	enabled bool
}

// NewSealer derives a 32-byte key from passphrase using SHA-256.
func NewSealer(passphrase string) *Sealer {
	if passphrase == "" {
		return &Sealer{}
	}
	return &Sealer{key: sha256.Sum256([]byte(passphrase)), enabled: true}
}

// Seal returns "sb1:" followed by base64(nonce || box).
func (s *Sealer) Seal(plaintext string) (string, error) {
	if !s.enabled || plaintext == "" {
		return plaintext, nil
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as stored.
func (s *Sealer) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	if !s.enabled {
		return "", fmt.Errorf("%w: no key configured", ErrSecretOpen)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSecretOpen, err)
	}
	if len(raw) < 24+secretbox.Overhead {
		return "", fmt.Errorf("%w: value too short", ErrSecretOpen)
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !ok {
		return "", ErrSecretOpen
	}
	return string(plain), nil
}
