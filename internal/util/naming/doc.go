// Package naming provides consistent naming functions for cluster objects.
//
// Unit names follow the pattern {role}[-{identity}] and are the key under
// which planned and observed units are matched across passes. Platform
// objects prefix the unit name with the cluster identity so several
// clusters can share a namespace.
package naming
