package sealed

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Envelope format (binary):
// [0..1]   uint16 version (currently 1)
// [2..13]  12-byte nonce
// [14..]   gcm.Seal output (ciphertext + tag)
const envelopeVersion uint16 = 1

const (
	gcmNonceSize = 12
	aesKeyLen    = 32
	headerLen    = 2 + gcmNonceSize
)

// aad binds envelopes to their use so a sealed blob from elsewhere fails to open.
var aad = []byte("otpdeck/secrets/v1")

var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("sealed: invalid key length")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("sealed: plaintext is empty")
	// ErrEnvelopeTooShort indicates a truncated envelope.
	ErrEnvelopeTooShort = errors.New("sealed: envelope too short")
	// ErrUnsupportedVersion indicates an unknown envelope version.
	ErrUnsupportedVersion = errors.New("sealed: unsupported envelope version")
	// ErrOpenFailed indicates authentication or decryption failure.
	ErrOpenFailed = errors.New("sealed: open failed")
)

// Box seals and opens secrets files with AES-256-GCM.
type Box struct {
	aead cipher.AEAD
}

// New constructs a Box from a 32-byte key.
func New(key []byte) (*Box, error) {
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("sealed: key is %d bytes (want %d for AES-256): %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sealed: aes init failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("sealed: gcm init failed: %w", err)
	}

	return &Box{aead: gcm}, nil
}

// Seal encrypts plaintext into a versioned envelope.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	out := make([]byte, headerLen, headerLen+len(plaintext)+b.aead.Overhead())
	binary.BigEndian.PutUint16(out[0:2], envelopeVersion)
	if _, err := io.ReadFull(rand.Reader, out[2:headerLen]); err != nil {
		return nil, fmt.Errorf("sealed: nonce generation failed: %w", err)
	}

	return b.aead.Seal(out, out[2:headerLen], plaintext, aad), nil
}

// Open authenticates and decrypts an envelope produced by Seal.
func (b *Box) Open(envelope []byte) ([]byte, error) {
	if len(envelope) < headerLen+b.aead.Overhead() {
		return nil, ErrEnvelopeTooShort
	}

	version := binary.BigEndian.Uint16(envelope[0:2])
	if version != envelopeVersion {
		return nil, fmt.Errorf("sealed: version %d: %w", version, ErrUnsupportedVersion)
	}

	plaintext, err := b.aead.Open(nil, envelope[2:headerLen], envelope[headerLen:], aad)
	if err != nil {
		return nil, ErrOpenFailed
	}

	return plaintext, nil
}
