// Package plan expands a topology into deployment units.
//
// Plan is a pure function: the same topology, bundle and options always
// yield the same units in the same order (masters, clients, then data
// groups in declaration order). Encode gives the canonical byte form used
// to compare plans.
package plan
