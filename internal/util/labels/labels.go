package labels

// Standard label keys for cluster objects.
const (
	// KeyCluster identifies which cluster an object belongs to
	KeyCluster = "estopo.io/cluster"

	// KeyRole identifies the node role (master, client, data)
	KeyRole = "estopo.io/role"

	// KeyUnit identifies the deployment unit name
	KeyUnit = "estopo.io/unit"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "estopo.io/managed-by"

	// Legacy keys set by deployments predating the estopo.io prefix.
	LegacyKeyClusterName = "cluster-name"
	LegacyKeyComponent   = "component"
	LegacyKeyRole        = "es-node-role"
)

// ManagedBy values
const (
	ManagedByEstopo = "estopo"
)

// LabelBuilder provides a fluent interface for building object labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the cluster name pre-set.
// Sets both new and legacy cluster labels for compatibility.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:           clusterName,
			LegacyKeyClusterName: clusterName,
			LegacyKeyComponent:   clusterName,
			KeyManagedBy:         ManagedByEstopo,
		},
	}
}

// WithRole adds a role label.
// Sets both new and legacy role labels for compatibility.
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	lb.labels[LegacyKeyRole] = role
	return lb
}

// WithUnit adds the deployment unit label.
func (lb *LabelBuilder) WithUnit(unit string) *LabelBuilder {
	lb.labels[KeyUnit] = unit
	return lb
}

// WithManagedBy sets who manages this object.
func (lb *LabelBuilder) WithManagedBy(manager string) *LabelBuilder {
	lb.labels[KeyManagedBy] = manager
	return lb
}

// Merge adds all labels from the provided map.
// Keys already set by the builder are not overridden.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if _, ok := lb.labels[k]; ok {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorForCluster returns a label selector string for all objects in a cluster.
func SelectorForCluster(clusterName string) string {
	return KeyCluster + "=" + clusterName
}

// LegacySelectorsForCluster returns the selectors used by older deployments,
// newest first.
func LegacySelectorsForCluster(clusterName string) []string {
	return []string{
		LegacyKeyClusterName + "=" + clusterName,
		LegacyKeyComponent + "=" + clusterName,
	}
}

// SelectorForUnit narrows SelectorForCluster to a single unit.
func SelectorForUnit(clusterName, unit string) map[string]string {
	return map[string]string{
		KeyCluster: clusterName,
		KeyUnit:    unit,
	}
}
