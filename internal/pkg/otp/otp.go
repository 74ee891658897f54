package otp

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	// DefaultPeriod is the RFC 6238 time step in seconds.
	DefaultPeriod uint = 30
	// DefaultDigits is the code width used when none is configured.
	DefaultDigits = otp.DigitsSix
	// DefaultAlgorithm is the HMAC used by nearly every issuer.
	DefaultAlgorithm = otp.AlgorithmSHA1
)

var (
	// ErrEmptySecret indicates a compute request with no key material.
	ErrEmptySecret = errors.New("otp: empty secret")
	// ErrUnknownAlgorithm indicates an unsupported HMAC algorithm name.
	ErrUnknownAlgorithm = errors.New("otp: unknown algorithm")
)

// Engine defines the contract for TOTP computation.
type Engine interface {
	// Compute returns the zero-padded code for secret at the given time step.
	Compute(secret []byte, step uint64) (string, error)
	// Step returns the time-step counter containing at.
	Step(at time.Time) uint64
	// Remaining returns the whole seconds left in the period containing at.
	Remaining(at time.Time) int
	// Period returns the period length in seconds.
	Period() uint
	// Digits returns the code width.
	Digits() int
}

// TOTP implements Engine using the Time-based One-Time Password algorithm.
type TOTP struct {
	period    uint
	digits    otp.Digits
	algorithm otp.Algorithm
}

// NewTOTP constructs a TOTP instance with sensible defaults.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// the common 30-second period.
func NewTOTP(period uint, digits otp.Digits, algorithm otp.Algorithm) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = DefaultDigits
	}

	if period == 0 {
		period = DefaultPeriod
	}

	return &TOTP{
		period:    period,
		digits:    digits,
		algorithm: algorithm,
	}
}

// ParseAlgorithm maps a configuration name such as "sha1" to an otp.Algorithm.
func ParseAlgorithm(name string) (otp.Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sha1":
		return otp.AlgorithmSHA1, nil
	case "sha256":
		return otp.AlgorithmSHA256, nil
	case "sha512":
		return otp.AlgorithmSHA512, nil
	default:
		return otp.AlgorithmSHA1, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

// Compute derives the code for secret at step.
//
// The result is deterministic for identical inputs. The only failure is an
// empty secret.
func (o *TOTP) Compute(secret []byte, step uint64) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	// hotp takes the key in its base32 text form. That string copy cannot be
	// wiped and lives until the garbage collector reclaims it.
	return hotp.GenerateCodeCustom(base32.StdEncoding.EncodeToString(secret), step, hotp.ValidateOpts{
		Digits:    o.digits,
		Algorithm: o.algorithm,
	})
}

// Step returns floor(unix seconds / period). Instants before the epoch map to 0.
func (o *TOTP) Step(at time.Time) uint64 {
	sec := at.Unix()
	if sec < 0 {
		return 0
	}

	return uint64(sec) / uint64(o.period)
}

// Remaining returns period - (unix seconds mod period), in the range [1, period].
func (o *TOTP) Remaining(at time.Time) int {
	sec := at.Unix()
	if sec < 0 {
		sec = 0
	}

	return int(o.period) - int(uint64(sec)%uint64(o.period))
}

// Period returns the period length in seconds.
func (o *TOTP) Period() uint {
	return o.period
}

// Digits returns the configured code width.
func (o *TOTP) Digits() int {
	return o.digits.Length()
}
