// Package goerror classifies failures by how the host must react.
//
// Recoverable errors (a secret that does not decode, a code that cannot be
// computed) are handled where they occur and only shrink the published code
// set. Fatal errors (unreadable storage, an unsynchronized clock, unusable
// configuration) stop the program before any code is generated.
package goerror
