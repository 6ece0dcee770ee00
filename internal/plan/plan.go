package plan

import (
	"errors"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/topology"
	"github.com/imamik/estopo/internal/util/labels"
	"github.com/imamik/estopo/internal/util/naming"
)

// Options carries the per-cluster inputs of a plan.
type Options struct {
	// Cluster is the cluster identity.
	Cluster string

	// Image is the container image every unit runs.
	Image string

	// Labels are added to every unit. Keys owned by estopo are ignored.
	Labels map[string]string
}

// Plan expands topo into one unit per group.
func Plan(topo *topology.Topology, bundle *certs.Bundle, opts Options) ([]Unit, error) {
	if topo == nil {
		return nil, errors.New("topology is required")
	}
	if opts.Cluster == "" {
		return nil, errors.New("cluster identity is required")
	}
	if opts.Image == "" {
		return nil, errors.New("image is required")
	}

	groups := topo.Groups()
	if len(groups) > 0 && bundle == nil {
		return nil, errors.New("certificate bundle is required")
	}

	settings := topo.NodeConfig()
	units := make([]Unit, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))

	for _, g := range groups {
		name := naming.Unit(string(g.Role), g.Identity)
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate unit name %q", name)
		}
		seen[name] = struct{}{}

		ref, err := bundle.Ref(g.Role)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", name, err)
		}

		units = append(units, Unit{
			Name:         name,
			Role:         g.Role,
			Identity:     g.Identity,
			Tier:         g.Role.Tier(),
			Replicas:     g.Replicas,
			Image:        opts.Image,
			Resources:    g.Resources,
			NodeSelector: g.NodeSelector,
			Storage:      g.Storage,
			CertRef:      ref,
			Labels: labels.NewLabelBuilder(opts.Cluster).
				WithRole(string(g.Role)).
				WithUnit(name).
				Merge(opts.Labels).
				Build(),
			Cluster:  opts.Cluster,
			Settings: settings,
		})
	}

	return units, nil
}

// Encode returns the canonical YAML form of a plan. Map keys are sorted,
// so equal plans encode to equal bytes.
func Encode(units []Unit) ([]byte, error) {
	data, err := yaml.Marshal(units)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return data, nil
}

// Names returns the unit names in plan order.
func Names(units []Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}
