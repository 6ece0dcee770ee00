// Package kube applies deployment units to a Kubernetes cluster.
//
// Each unit becomes one StatefulSet named {cluster}-{unit}. Units of a
// cluster share a headless discovery Service, and each role mounts a TLS
// Secret holding its leaf certificate. Observed state is read back from
// the StatefulSets carrying the cluster label, falling back to the labels
// used by older deployments when none are found.
package kube
