package tui

import (
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/pipeline"
)

// StageRow is a pipeline stage for display.
type StageRow struct {
	Stage  pipeline.Stage
	Done   bool
	Active bool
	Err    error
}

// UnitRow is the latest known progress of one unit.
type UnitRow struct {
	Name    string
	Tier    int
	Status  apply.EventType
	Outcome apply.Outcome
	Attempt int
	Err     error
}

// Model is the Bubble Tea model of the apply view.
type Model struct {
	Cluster   string
	Namespace string
	DryRun    bool

	Stages []StageRow
	Units  []UnitRow

	// Report is set once the pass finished.
	Report *apply.Report

	StartTime    time.Time
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool
}

// NewApplyModel creates a model for the apply command.
func NewApplyModel(cluster, namespace string, dryRun bool) Model {
	m := Model{
		Cluster:   cluster,
		Namespace: namespace,
		DryRun:    dryRun,
		StartTime: time.Now(),
	}
	for _, s := range pipeline.Stages() {
		m.Stages = append(m.Stages, StageRow{Stage: s})
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StageMsg:
		m.updateStage(msg)

	case UnitMsg:
		m.updateUnit(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		m.Report = msg.Report
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updateStage(msg StageMsg) {
	idx := -1
	for i, s := range m.Stages {
		if s.Stage == msg.Stage {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	// Mark previous stages as done
	for i := 0; i < idx; i++ {
		m.Stages[i].Done = true
		m.Stages[i].Active = false
	}

	if msg.Done {
		m.Stages[idx].Done = true
		m.Stages[idx].Active = false
	} else {
		m.Stages[idx].Active = true
	}

	if msg.Err != nil {
		m.Stages[idx].Err = msg.Err
	}
}

func (m *Model) updateUnit(msg UnitMsg) {
	idx := -1
	for i, u := range m.Units {
		if u.Name == msg.Unit {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.Units = append(m.Units, UnitRow{Name: msg.Unit, Tier: msg.Tier})
		idx = len(m.Units) - 1
	}

	row := &m.Units[idx]
	row.Status = msg.Type
	if msg.Attempt > row.Attempt {
		row.Attempt = msg.Attempt
	}
	if msg.Type == apply.EventFinished {
		row.Outcome = msg.Outcome
	}
	row.Err = msg.Err

	sort.SliceStable(m.Units, func(i, j int) bool {
		return m.Units[i].Tier < m.Units[j].Tier
	})
}

// finished counts units with a final outcome.
func (m Model) finished() int {
	n := 0
	for _, u := range m.Units {
		if u.Status == apply.EventFinished {
			n++
		}
	}
	return n
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
