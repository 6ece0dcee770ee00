package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/pipeline"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{3600 * time.Second, "1h0m"},
		{3661 * time.Second, "1h1m"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestCalculateProgress_Done(t *testing.T) {
	m := Model{Done: true}
	p := calculateProgress(m)
	if p != 1.0 {
		t.Errorf("expected 1.0, got %v", p)
	}
}

func TestCalculateProgress_Stages(t *testing.T) {
	m := NewApplyModel("logs", "search", false)
	// certificates and plan done
	m.Stages[0].Done = true
	m.Stages[1].Done = true

	p := calculateProgress(m)
	expected := 2.0 / 3.0 * 0.3
	if p < expected-0.01 || p > expected+0.01 {
		t.Errorf("expected ~%v, got %v", expected, p)
	}
}

func TestCalculateProgress_Units(t *testing.T) {
	m := NewApplyModel("logs", "search", false)
	for i := range 3 {
		m.Stages[i].Done = true
	}
	m.Units = []UnitRow{
		{Name: "master", Status: apply.EventFinished},
		{Name: "data-0", Status: apply.EventStarted},
	}

	p := calculateProgress(m)
	expected := 0.3 + 0.5*0.7
	if p < expected-0.01 || p > expected+0.01 {
		t.Errorf("expected ~%v, got %v", expected, p)
	}
}

func TestModelUpdateStage(t *testing.T) {
	m := NewApplyModel("logs", "search", false)

	m.updateStage(StageMsg{Stage: pipeline.StageCertificates})
	if !m.Stages[0].Active {
		t.Error("expected certificates stage to be active")
	}

	m.updateStage(StageMsg{Stage: pipeline.StageCertificates, Done: true})
	if !m.Stages[0].Done || m.Stages[0].Active {
		t.Error("expected certificates stage to be done and inactive")
	}

	// Jumping ahead marks earlier stages done
	m.updateStage(StageMsg{Stage: pipeline.StageApply})
	if !m.Stages[1].Done || !m.Stages[2].Done {
		t.Error("expected plan and observe stages to be done")
	}
	if !m.Stages[3].Active {
		t.Error("expected apply stage to be active")
	}

	m.updateStage(StageMsg{Stage: pipeline.StageApply, Done: true, Err: errors.New("boom")})
	if m.Stages[3].Err == nil {
		t.Error("expected apply stage error")
	}

	// Unknown stages are ignored
	m.updateStage(StageMsg{Stage: "unknown"})
}

func TestModelUpdateUnit(t *testing.T) {
	m := NewApplyModel("logs", "search", false)

	m.updateUnit(UnitMsg{Type: apply.EventStarted, Unit: "data-0", Tier: 2})
	m.updateUnit(UnitMsg{Type: apply.EventStarted, Unit: "master", Tier: 0})
	if len(m.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(m.Units))
	}
	if m.Units[0].Name != "master" {
		t.Errorf("expected units sorted by tier, got %q first", m.Units[0].Name)
	}

	m.updateUnit(UnitMsg{Type: apply.EventRetrying, Unit: "data-0", Tier: 2, Attempt: 1, Err: errors.New("conflict")})
	if m.Units[1].Status != apply.EventRetrying || m.Units[1].Attempt != 1 {
		t.Errorf("unexpected row %+v", m.Units[1])
	}

	m.updateUnit(UnitMsg{Type: apply.EventFinished, Unit: "data-0", Tier: 2, Attempt: 2, Outcome: apply.OutcomeUpdated})
	if m.Units[1].Outcome != apply.OutcomeUpdated || m.Units[1].Err != nil {
		t.Errorf("unexpected row %+v", m.Units[1])
	}
	if m.finished() != 1 {
		t.Errorf("expected 1 finished unit, got %d", m.finished())
	}
}

func TestModelUpdate_Messages(t *testing.T) {
	m := NewApplyModel("logs", "search", false)

	updated, cmd := m.Update(TickMsg{})
	if updated.(Model).SpinnerFrame != 1 || cmd == nil {
		t.Error("expected tick to advance spinner and schedule next tick")
	}

	report := &apply.Report{Namespace: "search"}
	updated, cmd = m.Update(DoneMsg{Report: report})
	fm := updated.(Model)
	if !fm.Done || fm.Report != report || cmd == nil {
		t.Error("expected done message to finish the model and quit")
	}

	updated, _ = m.Update(ErrMsg{Err: errors.New("no kubeconfig")})
	if updated.(Model).Err == nil {
		t.Error("expected error to be recorded")
	}

	updated, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if updated.(Model).Width != 60 {
		t.Error("expected width to be recorded")
	}
}

func TestRenderView(t *testing.T) {
	m := NewApplyModel("logs", "search", true)
	m.updateStage(StageMsg{Stage: pipeline.StageApply})
	m.updateUnit(UnitMsg{Type: apply.EventFinished, Unit: "master", Outcome: apply.OutcomeCreated})
	m.updateUnit(UnitMsg{Type: apply.EventWaiting, Unit: "master"})
	m.updateUnit(UnitMsg{Type: apply.EventFinished, Unit: "data-0", Tier: 2, Outcome: apply.OutcomeFailed, Err: errors.New("quota exceeded")})

	out := m.View()
	for _, want := range []string{"estopo: search/logs (dry run)", "apply", "master", "waiting for quorum", "data-0", "quota exceeded", "q: quit"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	m.Done = true
	m.Report = &apply.Report{Units: []apply.UnitResult{{Unit: "data-0", Outcome: apply.OutcomeFailed, Err: &apply.ApplyError{Unit: "data-0", Attempts: 1, Err: errors.New("quota exceeded")}}}}
	if out := m.View(); !strings.Contains(out, "Failed") {
		t.Error("expected failed header")
	}
}
