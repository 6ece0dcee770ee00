// Package async provides utilities for parallel task execution.
//
// Tasks run concurrently up to a configurable limit and every task's result
// is collected, so one failing task never hides the outcome of its siblings.
// The applier uses it to roll independent data groups side by side.
package async
