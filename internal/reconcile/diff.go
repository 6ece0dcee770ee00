package reconcile

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/api/equality"

	"github.com/imamik/estopo/internal/plan"
)

// Diff computes the actions that move observed to planned.
func Diff(planned []plan.Unit, observed map[string]UnitState) []Action {
	actions := make([]Action, 0, len(planned)+len(observed))
	wanted := make(map[string]struct{}, len(planned))

	for i := range planned {
		unit := &planned[i]
		wanted[unit.Name] = struct{}{}

		current, ok := observed[unit.Name]
		if !ok {
			actions = append(actions, Action{Kind: KindCreate, Unit: unit})
			continue
		}

		cur := current
		if changes := Changes(*unit, cur); len(changes) > 0 {
			actions = append(actions, Action{Kind: KindUpdate, Unit: unit, Current: &cur, Changes: changes})
		} else {
			actions = append(actions, Action{Kind: KindNoOp, Unit: unit, Current: &cur})
		}
	}

	var orphans []string
	for name := range observed {
		if _, ok := wanted[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		cur := observed[name]
		actions = append(actions, Action{Kind: KindOrphan, Current: &cur})
	}

	return actions
}

// Changes lists the fields in which the observed state differs from the
// unit. Quantities are compared by value, so 1024Mi equals 1Gi.
func Changes(unit plan.Unit, current UnitState) []string {
	var changes []string

	if unit.Replicas != current.Replicas {
		changes = append(changes, fmt.Sprintf("replicas %d -> %d", current.Replicas, unit.Replicas))
	}
	if !equality.Semantic.DeepEqual(unit.Resources.Limits, current.Resources.Limits) {
		changes = append(changes, "resources.limits")
	}
	if !equality.Semantic.DeepEqual(unit.Resources.Requests, current.Resources.Requests) {
		changes = append(changes, "resources.requests")
	}
	if !equality.Semantic.DeepEqual(unit.NodeSelector, current.NodeSelector) {
		changes = append(changes, "nodeSelector")
	}
	if unit.CertRef != current.CertRef {
		changes = append(changes, "certificate")
	}
	if unit.Image != current.Image {
		changes = append(changes, fmt.Sprintf("image %s -> %s", current.Image, unit.Image))
	}

	return changes
}

// Summary counts actions per kind.
func Summary(actions []Action) map[ActionKind]int {
	counts := make(map[ActionKind]int, len(Kinds()))
	for _, a := range actions {
		counts[a.Kind]++
	}
	return counts
}

// StateOf returns the observed form a unit has once it is applied.
func StateOf(unit plan.Unit) UnitState {
	return UnitState{
		Name:         unit.Name,
		Role:         unit.Role,
		Replicas:     unit.Replicas,
		Image:        unit.Image,
		Resources:    unit.Resources,
		NodeSelector: unit.NodeSelector,
		CertRef:      unit.CertRef,
	}
}
