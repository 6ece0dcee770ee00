package plan

import (
	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/topology"
)

// Tiers in rollout order.
const (
	TierMaster = 0
	TierClient = 1
	TierData   = 2
)

// Unit is one independently managed set of replicas.
type Unit struct {
	// Name is {role} or {role}-{identity} and unique within a cluster.
	Name     string        `json:"name"`
	Role     topology.Role `json:"role"`
	Identity string        `json:"identity,omitempty"`
	Tier     int           `json:"tier"`

	Replicas     int32              `json:"replicas"`
	Image        string             `json:"image"`
	Resources    topology.Resources `json:"resources"`
	NodeSelector map[string]string  `json:"nodeSelector,omitempty"`
	Storage      topology.Storage   `json:"storage"`
	CertRef      certs.Ref          `json:"certRef"`
	Labels       map[string]string  `json:"labels"`

	// Cluster is the cluster identity the unit belongs to.
	Cluster string `json:"cluster"`

	// Settings are shared by every unit of the cluster.
	Settings topology.NodeConfig `json:"settings"`
}

// IsMaster reports whether the unit hosts master-eligible nodes.
func (u Unit) IsMaster() bool {
	return u.Role == topology.RoleMaster
}
