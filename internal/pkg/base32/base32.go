package base32

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCharacter indicates a character outside the RFC 4648 alphabet.
	ErrInvalidCharacter = errors.New("base32: invalid character")
	// ErrEmptyInput indicates there is nothing to decode once padding is removed.
	ErrEmptyInput = errors.New("base32: empty input")
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
	padding  = '='
	invalid  = 0xFF
)

var decodeMap = func() [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = invalid
	}
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = byte(i)
		m[strings.ToLower(alphabet[i:i+1])[0]] = byte(i)
	}
	return m
}()

// DecodedLen returns the number of bytes n base32 characters decode to.
func DecodedLen(n int) int {
	return n * 5 / 8
}

// Decode converts encoded into raw bytes.
//
// Trailing '=' characters are ignored. Any other character outside the
// alphabet fails with ErrInvalidCharacter. Input that is empty after padding
// removal, or too short to fill a single byte, fails with ErrEmptyInput.
func Decode(encoded string) ([]byte, error) {
	trimmed := strings.TrimRight(encoded, string(padding))
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	out := make([]byte, 0, DecodedLen(len(trimmed)))

	var acc uint16
	var bits uint
	for i := 0; i < len(trimmed); i++ {
		v := decodeMap[trimmed[i]]
		if v == invalid {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidCharacter, trimmed[i], i)
		}

		acc = acc<<5 | uint16(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
			acc &= 1<<bits - 1
		}
	}

	if len(out) == 0 {
		return nil, ErrEmptyInput
	}

	return out, nil
}
