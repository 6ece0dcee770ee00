// Package certs provisions the certificate material of a cluster.
//
// Each cluster identity owns one Bundle: a CA key pair plus one leaf key
// pair per node role, signed by that CA. The Provisioner loads the bundle
// from a Store, generates it when absent, and regenerates it only on
// explicit rotation or, when enabled, on expiry. Calls for the same
// identity are serialized; calls for different identities are not.
//
// Stores persist the encoded bundle and must make Save write-once so that
// concurrent processes converge on a single bundle per identity.
package certs
