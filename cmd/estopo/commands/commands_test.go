package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "estopo", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"init",
		"validate",
		"plan",
		"apply",
		"certs",
		"version",
		"completion",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
	assert.Len(t, cmd.Commands(), len(expectedSubcommands))
}

func TestRoot_PersistentFlags(t *testing.T) {
	cmd := Root()

	for _, name := range []string{"config", "log-level", "log-dev"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	root := Root()
	root.SetArgs([]string{"version", "--log-level", "loud"})
	t.Cleanup(func() { global = globalFlags{} })

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestApply_Flags(t *testing.T) {
	cmd := Apply()

	tests := []struct {
		name     string
		defValue string
	}{
		{"dry-run", "false"},
		{"rotate", "false"},
		{"output", "text"},
		{"pushgateway", ""},
		{"no-tui", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.defValue, flag.DefValue)
		})
	}
	assert.Equal(t, "o", cmd.Flags().Lookup("output").Shorthand)
}

func TestPlan_Flags(t *testing.T) {
	cmd := Plan()
	flag := cmd.Flags().Lookup("output")
	require.NotNil(t, flag)
	assert.Equal(t, "text", flag.DefValue)
}

func TestCerts_Subcommands(t *testing.T) {
	cmd := Certs()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"provision", "rotate"}, names)
}

func TestInit_Flags(t *testing.T) {
	cmd := Init()
	flag := cmd.Flags().Lookup("output")
	require.NotNil(t, flag)
	assert.Equal(t, "estopo.yaml", flag.DefValue)
}

func TestVersion(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	var buf bytes.Buffer
	cmd := Version()
	cmd.SetOut(&buf)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "estopo 1.2.3")
	assert.Contains(t, buf.String(), "commit: abc123")
	assert.Contains(t, buf.String(), "built:  2026-01-01")
}

func TestCompletion(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "bash completion V2 for estopo"},
		{"zsh", "#compdef estopo"},
		{"fish", "fish completion for estopo"},
		{"powershell", "powershell completion for estopo"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var buf bytes.Buffer
			root := Root()
			root.SetOut(&buf)
			root.SetArgs([]string{"completion", tt.shell})

			require.NoError(t, root.Execute())
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestCompletion_RejectsUnknownShell(t *testing.T) {
	root := Root()
	root.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, root.Execute())
}
