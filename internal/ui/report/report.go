// Package report renders plans and apply reports for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"sigs.k8s.io/yaml"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/reconcile"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatYAML, FormatJSON}
}

// ParseFormat validates an --output value.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if f == "" {
		return FormatText, nil
	}
	if !slices.Contains(Formats(), f) {
		return "", fmt.Errorf("unknown output format %q (want one of %v)", s, Formats())
	}
	return f, nil
}

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r *apply.Report, f Format) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatYAML:
		data, err = r.YAML()
	case FormatJSON:
		data, err = r.JSON()
		data = append(data, '\n')
	default:
		data = []byte(Render(r))
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WritePlan encodes the actions of a plan to w in the given format.
func WritePlan(w io.Writer, cluster, namespace string, actions []reconcile.Action, f Format) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatYAML:
		data, err = yaml.Marshal(actions)
	case FormatJSON:
		data, err = json.MarshalIndent(actions, "", "  ")
		data = append(data, '\n')
	default:
		data = []byte(RenderPlan(cluster, namespace, actions))
	}
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Render produces a lipgloss-styled report.
func Render(r *apply.Report) string {
	var b strings.Builder

	title := fmt.Sprintf("  estopo apply: %s/%s", r.Namespace, r.Cluster)
	if r.DryRun {
		title += " (dry run)"
	}
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if r.RunID != "" {
		b.WriteString(dimStyle.Render("  run " + r.RunID))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-4s %-18s %-8s %-8s %-9s %s", "Tier", "Unit", "Role", "Action", "Outcome", "Detail")))
	b.WriteString("\n")
	for _, u := range r.Units {
		fmt.Fprintf(&b, "  %-4d %-18s %-8s %-8s %s %s\n",
			u.Tier, u.Unit, u.Role, u.Action,
			outcomeStyle(u.Outcome).Render(fmt.Sprintf("%-9s", u.Outcome)),
			detail(u))
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  Summary"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 40)))
	b.WriteString("\n")
	counts := r.Counts()
	var parts []string
	for _, o := range apply.Outcomes() {
		if n := counts[o]; n > 0 {
			parts = append(parts, outcomeStyle(o).Render(fmt.Sprintf("%d %s", n, strings.ToLower(string(o)))))
		}
	}
	fmt.Fprintf(&b, "    %s in %s\n", strings.Join(parts, ", "), formatDuration(r.Duration()))

	if r.Timeout != nil {
		b.WriteString("    ")
		b.WriteString(redStyle.Render(r.Timeout.Error()))
		b.WriteString("\n")
	}
	if counts[apply.OutcomeOrphan] > 0 {
		b.WriteString(dimStyle.Render("    Orphaned units are left running; remove them manually once drained."))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderPlan produces a lipgloss-styled listing of the actions of a pass.
func RenderPlan(cluster, namespace string, actions []reconcile.Action) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("  estopo plan: %s/%s", namespace, cluster)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	for _, a := range actions {
		fmt.Fprintf(&b, "  %s %-18s %s\n", kindMark(a.Kind), a.Name(), dimStyle.Render(string(a.Kind)))
		for _, c := range a.Changes {
			fmt.Fprintf(&b, "      %s\n", yellowStyle.Render(c))
		}
	}

	summary := reconcile.Summary(actions)
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %d to create, %d to update, %d unchanged, %d orphaned\n",
		summary[reconcile.KindCreate], summary[reconcile.KindUpdate],
		summary[reconcile.KindNoOp], summary[reconcile.KindOrphan])

	return b.String()
}

func kindMark(k reconcile.ActionKind) string {
	switch k {
	case reconcile.KindCreate:
		return greenStyle.Render("+")
	case reconcile.KindUpdate:
		return yellowStyle.Render("~")
	case reconcile.KindOrphan:
		return redStyle.Render("!")
	default:
		return dimStyle.Render("=")
	}
}

func outcomeStyle(o apply.Outcome) lipgloss.Style {
	switch o {
	case apply.OutcomeCreated, apply.OutcomeUpdated:
		return greenStyle
	case apply.OutcomeFailed:
		return redStyle
	case apply.OutcomeSkipped, apply.OutcomeOrphan:
		return yellowStyle
	default:
		return dimStyle
	}
}

func detail(u apply.UnitResult) string {
	switch {
	case u.Error != "":
		return redStyle.Render(u.Error)
	case len(u.Changes) > 0:
		return dimStyle.Render(strings.Join(u.Changes, "; "))
	case u.Attempts > 1:
		return dimStyle.Render(fmt.Sprintf("%d attempts", u.Attempts))
	}
	return ""
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
