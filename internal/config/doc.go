// Package config loads the estopo configuration file.
//
// The file names the cluster, the namespace and image to deploy, the
// topology (inline, or a path to a separate topology file), where
// certificate bundles are persisted and how the applier behaves. Timeouts
// and object storage credentials come from the environment.
package config
