package entity

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
)

// ServiceID is the short display name of an enrolled service.
type ServiceID string

// Secret is decoded key material. It is immutable: the bytes are copied in on
// construction and only lent out, as a throwaway copy, through Use.
type Secret struct {
	b []byte
}

// NewSecret copies raw into a new Secret.
func NewSecret(raw []byte) Secret {
	if len(raw) == 0 {
		return Secret{}
	}

	b := make([]byte, len(raw))
	copy(b, raw)

	return Secret{b: b}
}

// Len returns the key length in bytes.
func (s Secret) Len() int {
	return len(s.b)
}

// IsEmpty reports whether the secret holds no key material.
func (s Secret) IsEmpty() bool {
	return len(s.b) == 0
}

// Use lends a copy of the key bytes to fn and wipes the copy when fn returns.
// fn must not retain the slice.
func (s Secret) Use(fn func(key []byte) error) error {
	view := make([]byte, len(s.b))
	copy(view, s.b)
	defer clear(view)

	return fn(view)
}

// Equal reports whether both secrets hold the same bytes.
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare(s.b, other.b) == 1
}

// String never prints key material.
func (s Secret) String() string {
	return fmt.Sprintf("Secret(%d bytes)", len(s.b))
}

// GoString never prints key material.
func (s Secret) GoString() string {
	return s.String()
}

// LogValue redacts the secret in structured logs.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue("***")
}
