package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/estopo/internal/apply"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderStages(&b, m)

	if len(m.Units) > 0 {
		renderUnits(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("estopo: %s/%s", m.Namespace, m.Cluster)
	if m.DryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done && m.Report != nil && !m.Report.Succeeded():
		status += failedStyle.Render("Failed")
	case m.Done:
		status += readyStyle.Render("Converged")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warningStyle.Render(string(m.activeStage()))
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = max(m.Width-30, 10)
	}
	filled := min(int(float64(barWidth)*progress), barWidth)

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	fmt.Fprintf(b, "  %s %d%%  %d/%d units\n", bar, int(progress*100), m.finished(), len(m.Units))
}

func renderStages(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Pass"))
	b.WriteString("\n")

	for _, stage := range m.Stages {
		var icon string
		var style styleFunc
		switch {
		case stage.Err != nil:
			icon = crossMark
			style = sf(failedStyle)
		case stage.Done:
			icon = checkMark
			style = sf(readyStyle)
		case stage.Active:
			icon = currentSpinner(m.SpinnerFrame)
			style = sf(activeStyle)
		default:
			icon = pending
			style = sf(dimStyle)
		}
		fmt.Fprintf(b, "    %s %s\n", style(icon), style(string(stage.Stage)))
	}
}

func renderUnits(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Units"))
	b.WriteString("\n")

	for _, u := range m.Units {
		icon, style := unitIcon(u, m.SpinnerFrame)
		extra := ""
		switch {
		case u.Status == apply.EventRetrying:
			extra = sf(warningStyle)(fmt.Sprintf("retry %d", u.Attempt))
		case u.Status == apply.EventWaiting:
			extra = sf(activeStyle)("waiting for quorum")
		case u.Status == apply.EventFinished:
			extra = style(string(u.Outcome))
		}
		fmt.Fprintf(b, "    %s tier %d  %-18s %s\n", style(icon), u.Tier, style(u.Name), extra)
		if u.Err != nil {
			fmt.Fprintf(b, "        %s\n", dimStyle.Render(u.Err.Error()))
		}
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	pulse := ""
	if !m.Done && m.Err == nil {
		pulse = "  |  " + currentSpinner(m.SpinnerFrame) + " reconciling"
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s%s  |  q: quit", elapsed, pulse)))
	b.WriteString("\n")
}

// Helper functions

func unitIcon(u UnitRow, frame int) (string, styleFunc) {
	if u.Status != apply.EventFinished {
		if u.Status == apply.EventRetrying {
			return warnMark, sf(warningStyle)
		}
		return currentSpinner(frame), sf(activeStyle)
	}
	switch u.Outcome {
	case apply.OutcomeCreated, apply.OutcomeUpdated, apply.OutcomeNoOp:
		return checkMark, sf(readyStyle)
	case apply.OutcomeFailed:
		return crossMark, sf(failedStyle)
	case apply.OutcomeOrphan:
		return warnMark, sf(warningStyle)
	default:
		return skipMark, sf(dimStyle)
	}
}

func (m Model) activeStage() string {
	for _, s := range m.Stages {
		if s.Active {
			return string(s.Stage)
		}
	}
	return "starting"
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

// calculateProgress weighs the stages before apply at 30% and unit
// completion at 70%.
func calculateProgress(m Model) float64 {
	if m.Done {
		return 1.0
	}

	done := 0
	for _, s := range m.Stages {
		if s.Done {
			done++
		}
	}
	var progress float64
	if len(m.Stages) > 1 {
		progress = float64(min(done, len(m.Stages)-1)) / float64(len(m.Stages)-1) * 0.3
	}
	if len(m.Units) > 0 {
		progress += float64(m.finished()) / float64(len(m.Units)) * 0.7
	}
	return min(progress, 1.0)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
