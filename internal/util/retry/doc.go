// Package retry runs an operation under an exponential backoff policy.
//
// [Do] calls the operation until it succeeds, the policy runs out of
// retries, the context ends, or the operation returns an error wrapped
// with [Fatal]. It reports how many attempts were made so callers can
// record them. The applier uses it for platform writes that fail with
// conflicts, throttling or unavailable API servers.
package retry
