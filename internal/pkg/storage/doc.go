// Package storage fetches provisioning objects from the local filesystem or an
// object store (AWS S3, MinIO, Google Cloud Storage).
//
// Only reads are supported: the authenticator never writes secrets back.
// Missing objects are reported as ErrObjectNotFound regardless of backend.
package storage
