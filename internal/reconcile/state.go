package reconcile

import (
	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/topology"
)

// UnitState is a unit as observed on the platform.
type UnitState struct {
	Name          string             `json:"name"`
	Role          topology.Role      `json:"role,omitempty"`
	Replicas      int32              `json:"replicas"`
	ReadyReplicas int32              `json:"readyReplicas"`
	Image         string             `json:"image,omitempty"`
	Resources     topology.Resources `json:"resources"`
	NodeSelector  map[string]string  `json:"nodeSelector,omitempty"`
	CertRef       certs.Ref          `json:"certRef"`
}

// Ready reports whether every desired replica is ready.
func (s UnitState) Ready() bool {
	return s.ReadyReplicas >= s.Replicas
}
