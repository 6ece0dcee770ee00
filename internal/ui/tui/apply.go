package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/pipeline"
)

// Observers feed pass progress into the view. Wire Stage into
// pipeline.WithStageObserver and Unit into apply.WithObserver.
type Observers struct {
	Stage func(pipeline.StageEvent)
	Unit  func(apply.Event)
}

// RunApplyTUI runs a pass under the live view. runFn receives the observers
// and returns the report of the pass. The report is returned even when the
// view is quit early.
func RunApplyTUI(
	ctx context.Context,
	runFn func(ctx context.Context, obs Observers) (*apply.Report, error),
	cluster, namespace string,
	dryRun bool,
) (*apply.Report, error) {
	m := NewApplyModel(cluster, namespace, dryRun)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	type outcome struct {
		report *apply.Report
		err    error
	}
	result := make(chan outcome, 1)

	go func() {
		obs := Observers{
			Stage: func(e pipeline.StageEvent) { p.Send(StageMsg(e)) },
			Unit:  func(e apply.Event) { p.Send(UnitMsg(e)) },
		}
		report, err := runFn(ctx, obs)
		result <- outcome{report: report, err: err}
		if report == nil && err != nil {
			p.Send(ErrMsg{Err: err})
			return
		}
		p.Send(DoneMsg{Report: report})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	res := <-result
	return res.report, res.err
}
