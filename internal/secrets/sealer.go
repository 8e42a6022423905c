// Package secrets seals short credentials before they are written to storage.
package secrets

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

const (
	sealedPrefix = "sealed:v1:"
	nonceSize    = 24
)

// ErrOpen is returned when a sealed value cannot be decrypted with the key.
var ErrOpen = errors.New("secrets: cannot open sealed value")

// Sealer encrypts values with NaCl secretbox. The key is derived from a
// passphrase with SHA-256.
type Sealer struct {
	key [32]byte
}

// NewSealer derives a sealer from passphrase. An empty passphrase returns nil:
// callers treat a nil sealer as "store in clear".
func NewSealer(passphrase string) *Sealer {
	if passphrase == "" {
		return nil
	}
	return &Sealer{key: sha256.Sum256([]byte(passphrase))}
}

// Sealed reports whether value carries the sealed marker.
func Sealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// Seal encrypts plaintext. Empty and already sealed values are returned as
// is, and so is everything on a nil sealer.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if s == nil || plaintext == "" || Sealed(plaintext) {
		return plaintext, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secrets: nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open decrypts a sealed value. Values without the marker are returned as is.
func (s *Sealer) Open(value string) (string, error) {
	if !Sealed(value) {
		return value, nil
	}
	if s == nil {
		return "", ErrOpen
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(raw) < nonceSize {
		return "", ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}
