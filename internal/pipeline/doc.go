// Package pipeline runs one reconciliation pass.
//
// A pass resolves certificate material for the topology, plans the units,
// diffs them against the platform and applies the result. Validation and
// certificate errors abort the pass before anything on the platform
// changes; apply errors are collected in the report.
package pipeline
