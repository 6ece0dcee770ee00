// Package memory provides an in-memory platform.
//
// It backs dry runs of the CLI and the tests of the applier and the
// pipeline. Failures and slow calls can be injected per unit.
package memory
