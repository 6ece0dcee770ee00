package topology

// NodeConfig holds cluster-wide settings every node needs to agree on.
type NodeConfig struct {
	// MastersQuorum is the minimum number of master-eligible nodes that
	// must be visible to elect a master.
	MastersQuorum int32 `json:"mastersQuorum"`

	// ExpectedDataNodes is the number of data nodes recovery waits for.
	ExpectedDataNodes int32 `json:"expectedDataNodes"`

	// ExpectedNodes is the total number of nodes in the cluster.
	ExpectedNodes int32 `json:"expectedNodes"`
}

// NodeConfig computes quorum and recovery expectations from the replica
// counts of all groups.
func (t *Topology) NodeConfig() NodeConfig {
	var masters, data, total int32
	for _, g := range t.Groups() {
		switch g.Role {
		case RoleMaster:
			masters += g.Replicas
		case RoleData:
			data += g.Replicas
		}
		total += g.Replicas
	}
	return NodeConfig{
		MastersQuorum:     masters/2 + 1,
		ExpectedDataNodes: data,
		ExpectedNodes:     total,
	}
}
