// Package tui provides a Bubble Tea-based live view of a reconciliation pass.
package tui

import (
	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/pipeline"
)

// StageMsg reports progress of a pipeline stage.
type StageMsg pipeline.StageEvent

// UnitMsg reports progress of one unit.
type UnitMsg apply.Event

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the pass is complete.
type DoneMsg struct {
	Report *apply.Report
}
