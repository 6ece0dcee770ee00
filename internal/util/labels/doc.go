// Package labels provides consistent labeling for cluster objects.
//
// All labels use the estopo.io domain prefix and follow a builder pattern
// for constructing label sets with cluster, role, unit, and manager
// identification. Legacy keys written by older deployments are set as well
// so existing selectors keep matching.
package labels
