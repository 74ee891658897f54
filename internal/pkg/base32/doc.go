// Package base32 decodes RFC 4648 base32 text into raw key bytes.
//
// It is more lenient than encoding/base32 in the ways authenticator secrets
// need: the alphabet is case-insensitive, trailing padding is optional, and a
// short final group is decoded using only the whole bytes its bits can fill.
package base32
