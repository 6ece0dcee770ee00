package handlers

import (
	"fmt"

	"github.com/imamik/estopo/internal/topology"
)

// Validate loads the configuration, resolves its topology and prints the
// resulting node groups. It does not contact the cluster.
func Validate(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	topo, err := cfg.ResolveTopology()
	if err != nil {
		return fmt.Errorf("invalid topology: %w", err)
	}

	printTopology(cfg.Cluster, cfg.Namespace, topo)
	return nil
}

func printTopology(cluster, namespace string, topo *topology.Topology) {
	out := stdout
	fmt.Fprintln(out, "Configuration valid")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Cluster:   %s\n", cluster)
	fmt.Fprintf(out, "  Namespace: %s\n", namespace)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Node Groups")
	fmt.Fprintln(out, "-----------")
	fmt.Fprintf(out, "  %-8s %-10s %8s %8s %8s  %s\n", "Role", "Identity", "Replicas", "CPU", "Memory", "Storage")
	for _, g := range topo.Groups() {
		storage := string(g.Storage.Type)
		if storage == "" {
			storage = string(topology.StorageEmptyDir)
		}
		if g.Storage.ClaimName != "" {
			storage += " " + g.Storage.ClaimName
		}
		fmt.Fprintf(out, "  %-8s %-10s %8d %8s %8s  %s\n",
			g.Role, g.Identity, g.Replicas,
			g.Resources.Limits.Cpu().String(), g.Resources.Limits.Memory().String(),
			storage)
	}
	fmt.Fprintln(out)

	nc := topo.NodeConfig()
	fmt.Fprintln(out, "Cluster Settings")
	fmt.Fprintln(out, "----------------")
	fmt.Fprintf(out, "  Masters quorum:      %d\n", nc.MastersQuorum)
	fmt.Fprintf(out, "  Expected data nodes: %d\n", nc.ExpectedDataNodes)
	fmt.Fprintf(out, "  Expected nodes:      %d\n", nc.ExpectedNodes)
}
