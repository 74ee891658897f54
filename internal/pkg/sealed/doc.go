// Package sealed encrypts provisioning files at rest.
//
// A secrets file kept on shared object storage can be stored as a sealed
// envelope (AES-256-GCM, versioned header, random nonce). The authenticator
// opens it in memory right before parsing.
package sealed
