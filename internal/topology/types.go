package topology

import (
	corev1 "k8s.io/api/core/v1"
)

// Role is the functional category of a node group.
type Role string

const (
	RoleMaster Role = "master"
	RoleClient Role = "client"
	RoleData   Role = "data"
)

// Roles returns all concrete roles in tier order.
func Roles() []Role {
	return []Role{RoleMaster, RoleClient, RoleData}
}

// IsValid returns true if the role is one of the concrete roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleMaster, RoleClient, RoleData:
		return true
	default:
		return false
	}
}

// Tier returns the rollout tier of the role. Lower tiers are applied first.
func (r Role) Tier() int {
	switch r {
	case RoleMaster:
		return 0
	case RoleClient:
		return 1
	default:
		return 2
	}
}

// StorageType selects how a group's data directory is backed.
type StorageType string

const (
	StorageEmptyDir  StorageType = "emptydir"
	StoragePVC       StorageType = "pvc"
	StorageHostMount StorageType = "hostmount"
)

// IsValid returns true if the storage type is known.
func (s StorageType) IsValid() bool {
	switch s {
	case StorageEmptyDir, StoragePVC, StorageHostMount:
		return true
	default:
		return false
	}
}

// Storage describes the data volume of a group.
type Storage struct {
	Type StorageType `yaml:"type,omitempty" json:"type,omitempty"`

	// Size of each claim when Type is pvc.
	Size string `yaml:"size,omitempty" json:"size,omitempty"`

	StorageClass string            `yaml:"storageClass,omitempty" json:"storageClass,omitempty"`
	PVSelector   map[string]string `yaml:"pvSelector,omitempty" json:"pvSelector,omitempty"`

	// ClaimName binds the group to a pre-existing claim instead of a
	// claim template. Only valid for single-replica groups.
	ClaimName string `yaml:"claimName,omitempty" json:"claimName,omitempty"`

	// ClaimPrefix is only used in simple mode, where data group i gets
	// the claim {prefix}-{i}.
	ClaimPrefix string `yaml:"claimPrefix,omitempty" json:"claimPrefix,omitempty"`

	HostPath string `yaml:"hostPath,omitempty" json:"hostPath,omitempty"`
}

// Resources holds parsed resource limits and requests.
type Resources struct {
	Limits   corev1.ResourceList `json:"limits"`
	Requests corev1.ResourceList `json:"requests,omitempty"`
}

// Group is a validated node group.
type Group struct {
	Role         Role              `json:"role"`
	Identity     string            `json:"identity,omitempty"`
	Replicas     int32             `json:"replicas"`
	Resources    Resources         `json:"resources"`
	NodeSelector map[string]string `json:"nodeSelector,omitempty"`
	Storage      Storage           `json:"storage"`
}

// Topology is the validated desired state of a cluster.
type Topology struct {
	Masters *Group  `json:"masters,omitempty"`
	Clients *Group  `json:"clients,omitempty"`
	Data    []Group `json:"data,omitempty"`
}

// Groups returns every group in tier order: masters, clients, then data
// groups in declaration order.
func (t *Topology) Groups() []Group {
	groups := make([]Group, 0, len(t.Data)+2)
	if t.Masters != nil {
		groups = append(groups, *t.Masters)
	}
	if t.Clients != nil {
		groups = append(groups, *t.Clients)
	}
	return append(groups, t.Data...)
}

// Roles returns the roles present in the topology in tier order.
func (t *Topology) Roles() []Role {
	var roles []Role
	if t.Masters != nil {
		roles = append(roles, RoleMaster)
	}
	if t.Clients != nil {
		roles = append(roles, RoleClient)
	}
	if len(t.Data) > 0 {
		roles = append(roles, RoleData)
	}
	return roles
}
