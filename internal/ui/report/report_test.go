package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/reconcile"
	"github.com/imamik/estopo/internal/topology"
)

func sampleReport() *apply.Report {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &apply.Report{
		RunID:      "run-1",
		Cluster:    "logs",
		Namespace:  "search",
		StartedAt:  started,
		FinishedAt: started.Add(95 * time.Second),
		Units: []apply.UnitResult{
			{Unit: "master", Role: topology.RoleMaster, Action: reconcile.KindCreate, Outcome: apply.OutcomeCreated, Attempts: 1},
			{Unit: "data-0", Role: topology.RoleData, Tier: 2, Action: reconcile.KindUpdate, Outcome: apply.OutcomeUpdated, Changes: []string{"replicas 1 -> 2"}, Attempts: 1},
			{Unit: "data-1", Role: topology.RoleData, Tier: 2, Action: reconcile.KindCreate, Outcome: apply.OutcomeFailed, Attempts: 3, Error: "apply data-1 (data) failed after 3 attempt(s): quota exceeded"},
			{Unit: "data-2", Role: topology.RoleData, Tier: 3, Action: reconcile.KindOrphan, Outcome: apply.OutcomeOrphan},
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "YAML", want: FormatYAML},
		{in: "json", want: FormatJSON},
		{in: "table", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	output := Render(sampleReport())

	assert.Contains(t, output, "estopo apply: search/logs")
	assert.Contains(t, output, "run run-1")
	assert.Contains(t, output, "replicas 1 -> 2")
	assert.Contains(t, output, "quota exceeded")
	assert.Contains(t, output, "1 created, 1 updated, 1 orphan, 1 failed in 1m35s")
	assert.Contains(t, output, "Orphaned units are left running")
	assert.NotContains(t, output, "dry run")
}

func TestRender_Timeout(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.DryRun = true
	r.Timeout = &apply.TimeoutError{Abandoned: []string{"data-1"}, Err: context.DeadlineExceeded}

	output := Render(r)
	assert.Contains(t, output, "(dry run)")
	assert.Contains(t, output, "abandoned 1 unit(s) [data-1]")
}

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, sampleReport(), FormatJSON))

		var decoded apply.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "run-1", decoded.RunID)
		assert.Len(t, decoded.Units, 4)
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, sampleReport(), FormatYAML))
		assert.Contains(t, buf.String(), "runID: run-1")
		assert.Contains(t, buf.String(), "outcome: Orphan")
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, sampleReport(), FormatText))
		assert.Contains(t, buf.String(), "Summary")
	})

	t.Run("writer error", func(t *testing.T) {
		t.Parallel()
		err := Write(failingWriter{}, sampleReport(), FormatText)
		assert.Error(t, err)
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRenderPlan(t *testing.T) {
	t.Parallel()

	actions := []reconcile.Action{
		{Kind: reconcile.KindCreate, Unit: &plan.Unit{Name: "master", Role: topology.RoleMaster}},
		{Kind: reconcile.KindUpdate, Unit: &plan.Unit{Name: "data-0", Role: topology.RoleData, Tier: plan.TierData},
			Current: &reconcile.UnitState{Name: "data-0"}, Changes: []string{"certificate"}},
		{Kind: reconcile.KindNoOp, Unit: &plan.Unit{Name: "data-1", Role: topology.RoleData, Tier: plan.TierData},
			Current: &reconcile.UnitState{Name: "data-1"}},
		{Kind: reconcile.KindOrphan, Current: &reconcile.UnitState{Name: "data-2", Role: topology.RoleData}},
	}

	output := RenderPlan("logs", "search", actions)
	assert.Contains(t, output, "estopo plan: search/logs")
	assert.Contains(t, output, "certificate")
	assert.Contains(t, output, "data-2")
	assert.Contains(t, output, "1 to create, 1 to update, 1 unchanged, 1 orphaned")

	var buf bytes.Buffer
	require.NoError(t, WritePlan(&buf, "logs", "search", actions, FormatYAML))
	assert.Contains(t, buf.String(), "kind: Orphan")

	buf.Reset()
	require.NoError(t, WritePlan(&buf, "logs", "search", actions, FormatJSON))
	var decoded []reconcile.Action
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 4)
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{250 * time.Millisecond, "250ms"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{3661 * time.Second, "1h1m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}
