// Package topology parses and validates the declared shape of a search
// cluster.
//
// A topology has at most one master group, at most one client group and an
// ordered list of independently scaled data groups. Raw input is a flat list
// of groups, each declaring its roles; Resolve turns it into a Topology or a
// ValidationError listing every problem found. A simple mode derives the
// whole layout from a single cluster size.
//
// Nothing in this package performs I/O except Load, which reads a file.
package topology
