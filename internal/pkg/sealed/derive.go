package sealed

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	kdfMemory      = 64 * 1024 // KiB
	kdfIterations  = 3
	kdfParallelism = 2
	minSaltLen     = 16
)

var (
	// ErrPassphraseEmpty indicates an empty passphrase.
	ErrPassphraseEmpty = errors.New("sealed: passphrase is empty")
	// ErrSaltTooShort indicates a salt below 16 bytes.
	ErrSaltTooShort = errors.New("sealed: salt too short")
)

// DeriveKey stretches passphrase into an AES-256 key with Argon2id. The same
// passphrase and salt always give the same key.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrPassphraseEmpty
	}
	if len(salt) < minSaltLen {
		return nil, fmt.Errorf("sealed: salt is %d bytes (want at least %d): %w", len(salt), minSaltLen, ErrSaltTooShort)
	}

	return argon2.IDKey(passphrase, salt, kdfIterations, kdfMemory, kdfParallelism, aesKeyLen), nil
}

// NewFromPassphrase constructs a Box from a key derived with DeriveKey.
func NewFromPassphrase(passphrase, salt []byte) (*Box, error) {
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	return New(key)
}
