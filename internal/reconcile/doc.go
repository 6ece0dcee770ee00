// Package reconcile diffs planned units against observed state.
//
// Diff yields exactly one action per planned unit, in plan order, followed
// by one Orphan action per observed unit nobody planned. There is no
// delete action: orphans are reported and left alone.
package reconcile
