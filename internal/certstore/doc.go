// Package certstore implements certs.Store on top of durable backends.
//
// Every backend makes Save write-once so that two processes racing to
// create a bundle for the same identity converge on whichever wrote first:
//
//   - FileStore links a fully written temp file into place.
//   - SecretStore relies on Secret creation failing with AlreadyExists.
//   - S3Store uploads with If-None-Match: *.
//   - SQLiteStore relies on the primary key of cert_bundles.
//
// The storetest package holds the contract suite every backend passes.
package certstore
