package reconcile

import (
	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/topology"
)

// ActionKind tags an Action. There is deliberately no delete kind.
type ActionKind string

const (
	KindCreate ActionKind = "Create"
	KindUpdate ActionKind = "Update"
	KindNoOp   ActionKind = "NoOp"
	KindOrphan ActionKind = "Orphan"
)

// Kinds returns every action kind.
func Kinds() []ActionKind {
	return []ActionKind{KindCreate, KindUpdate, KindNoOp, KindOrphan}
}

// Action is one step of a reconciliation pass.
//
// Unit is set for Create, Update and NoOp. Current is set for Update, NoOp
// and Orphan.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Unit    *plan.Unit `json:"unit,omitempty"`
	Current *UnitState `json:"current,omitempty"`

	// Changes lists the differing fields of an Update.
	Changes []string `json:"changes,omitempty"`
}

// Name returns the unit name the action is about.
func (a Action) Name() string {
	if a.Unit != nil {
		return a.Unit.Name
	}
	if a.Current != nil {
		return a.Current.Name
	}
	return ""
}

// Role returns the role of the unit, if known.
func (a Action) Role() topology.Role {
	if a.Unit != nil {
		return a.Unit.Role
	}
	if a.Current != nil {
		return a.Current.Role
	}
	return ""
}

// Tier returns the rollout tier. Orphans sort after every planned tier.
func (a Action) Tier() int {
	if a.Unit != nil {
		return a.Unit.Tier
	}
	return plan.TierData + 1
}

// Mutates reports whether applying the action changes the platform.
func (a Action) Mutates() bool {
	return a.Kind == KindCreate || a.Kind == KindUpdate
}

// Transition returns the phase before and after the action starts.
func (a Action) Transition() (from, to Phase) {
	switch a.Kind {
	case KindCreate:
		return PhaseAbsent, PhaseCreating
	case KindUpdate:
		return PhaseReady, PhaseUpdating
	case KindOrphan:
		return PhaseReady, PhaseOrphaned
	default:
		return PhaseReady, PhaseReady
	}
}
