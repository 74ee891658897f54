// Package otp computes time-based one-time passwords (TOTP, RFC 6238).
//
// The engine works on raw key bytes and an explicit time-step counter, so the
// caller decides which step is current and can compute many codes for the same
// step in one pass. HMAC and dynamic truncation are delegated to
// github.com/pquerna/otp.
package otp
