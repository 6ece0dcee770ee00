// Package s3 provides a small client for S3-compatible object storage.
//
// It covers what the certificate store needs: bucket creation, object
// upload with an optional create-only precondition, download and listing.
// Provider specific error codes are mapped onto ErrObjectNotFound and
// ErrPreconditionFailed so callers never inspect SDK types.
package s3
