package apply

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/imamik/estopo/internal/reconcile"
	"github.com/imamik/estopo/internal/topology"
)

// Outcome is the final result of one unit.
type Outcome string

const (
	OutcomeCreated Outcome = "Created"
	OutcomeUpdated Outcome = "Updated"
	OutcomeNoOp    Outcome = "NoOp"
	OutcomeOrphan  Outcome = "Orphan"
	OutcomeFailed  Outcome = "Failed"
	OutcomeSkipped Outcome = "Skipped"
)

// Outcomes returns every outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeCreated, OutcomeUpdated, OutcomeNoOp, OutcomeOrphan, OutcomeFailed, OutcomeSkipped}
}

// UnitResult is the report line of one unit.
type UnitResult struct {
	Unit     string               `json:"unit"`
	Role     topology.Role        `json:"role,omitempty"`
	Tier     int                  `json:"tier"`
	Action   reconcile.ActionKind `json:"action"`
	Outcome  Outcome              `json:"outcome"`
	Phase    reconcile.Phase      `json:"phase"`
	Changes  []string             `json:"changes,omitempty"`
	Attempts int                  `json:"attempts,omitempty"`
	Duration time.Duration        `json:"duration,omitempty"`

	// State is the observed state after the action, or the prior state
	// when nothing was applied.
	State *reconcile.UnitState `json:"state,omitempty"`

	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

// Report enumerates the outcome of every unit of a pass.
type Report struct {
	RunID      string        `json:"runID,omitempty"`
	Cluster    string        `json:"cluster,omitempty"`
	Namespace  string        `json:"namespace"`
	DryRun     bool          `json:"dryRun,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Units      []UnitResult  `json:"units"`
	Timeout    *TimeoutError `json:"-"`
}

// Duration returns the wall time of the pass.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts returns the number of units per outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int, len(Outcomes()))
	for _, u := range r.Units {
		counts[u.Outcome]++
	}
	return counts
}

// Result returns the result for a unit by name.
func (r *Report) Result(unit string) (UnitResult, bool) {
	for _, u := range r.Units {
		if u.Unit == unit {
			return u, true
		}
	}
	return UnitResult{}, false
}

// Err joins every ApplyError and the TimeoutError of the pass. It is nil
// when every unit was applied, left unchanged, or reported as orphan.
func (r *Report) Err() error {
	var errs []error
	for _, u := range r.Units {
		var ae *ApplyError
		if errors.As(u.Err, &ae) {
			errs = append(errs, ae)
		}
	}
	if r.Timeout != nil {
		errs = append(errs, r.Timeout)
	}
	return errors.Join(errs...)
}

// Succeeded reports whether the pass ended without ApplyError or TimeoutError.
func (r *Report) Succeeded() bool {
	return r.Err() == nil
}

// YAML renders the report as YAML.
func (r *Report) YAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}
