package topology

import (
	"strconv"

	"github.com/imamik/estopo/internal/util/naming"
)

// Default limits used when a topology is derived from a cluster size.
const (
	DefaultMasterCPULimit    = "500m"
	DefaultMasterMemoryLimit = "1Gi"
	DefaultDataCPULimit      = "4000m"
	DefaultDataMemoryLimit   = "8Gi"

	// MaxSimpleMasters caps the master group in simple mode.
	MaxSimpleMasters = 3
)

// expand turns a cluster size into explicit groups: one single-replica data
// group per node plus a master group of min(size, 3) replicas.
func (s *Spec) expand() []GroupSpec {
	size := *s.ClusterSize

	cpu := s.CPU
	if cpu == "" {
		cpu = DefaultDataCPULimit
	}
	memory := s.Memory
	if memory == "" {
		memory = DefaultDataMemoryLimit
	}

	masters := int32(min(size, MaxSimpleMasters))
	groups := []GroupSpec{{
		Roles:    []string{string(RoleMaster)},
		Replicas: &masters,
		Resources: ResourceSpec{
			Limits: ResourceValues{CPU: DefaultMasterCPULimit, Memory: DefaultMasterMemoryLimit},
		},
		NodeSelector: s.NodeSelector,
	}}

	for i := range size {
		one := int32(1)
		storage := s.Storage
		storage.ClaimPrefix = ""
		if s.Storage.ClaimPrefix != "" {
			if storage.Type == "" {
				storage.Type = StoragePVC
			}
			storage.ClaimName = naming.VolumeClaim(s.Storage.ClaimPrefix, i)
		}
		groups = append(groups, GroupSpec{
			Roles:        []string{string(RoleData)},
			Identity:     strconv.Itoa(i),
			Replicas:     &one,
			Resources:    ResourceSpec{Limits: ResourceValues{CPU: cpu, Memory: memory}},
			NodeSelector: s.NodeSelector,
			Storage:      storage,
		})
	}
	return groups
}
