// Package apply executes reconciliation actions against a platform.
//
// Actions run tier by tier: masters, then clients, then data groups, with a
// barrier between tiers. Units inside a tier run concurrently up to a
// configurable bound. A failing master tier skips every dependent unit; a
// failing client or data unit affects nothing but itself.
//
// Transient platform errors are retried with exponential backoff; anything
// else fails the unit on the first attempt. When the context expires, the
// units not yet finished are reported as skipped and the report carries a
// TimeoutError. Nothing is rolled back and orphans are never touched.
package apply
