package reconcile

// Phase is where a unit is in its lifecycle.
type Phase string

const (
	PhaseAbsent   Phase = "Absent"
	PhaseCreating Phase = "Creating"
	PhaseReady    Phase = "Ready"
	PhaseUpdating Phase = "Updating"
	PhaseOrphaned Phase = "Orphaned"
)

// Settle returns the phase after the transitional phase p completed.
// A failed create leaves the unit absent; a failed update leaves the
// previous state in place.
func (p Phase) Settle(succeeded bool) Phase {
	switch p {
	case PhaseCreating:
		if succeeded {
			return PhaseReady
		}
		return PhaseAbsent
	case PhaseUpdating:
		return PhaseReady
	default:
		return p
	}
}
