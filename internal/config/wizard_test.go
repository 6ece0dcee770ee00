package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClusterName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{"valid simple name", "logging", false},
		{"valid with numbers", "logs-123", false},
		{"uppercase letters (auto-lowercased)", "Logging", false},
		{"empty string", "", true},
		{"too long (64 chars)", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"max length (63 chars)", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"starts with hyphen", "-logs", true},
		{"contains underscore", "my_logs", true},
		{"contains dot", "my.logs", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateClusterName(tt.input)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWizardResultToConfig(t *testing.T) {
	t.Parallel()

	r := &WizardResult{
		Cluster:     "Logging",
		Namespace:   "search",
		Image:       DefaultImage,
		ClusterSize: 5,
		Store:       StoreSQLite,
		ClaimPrefix: "es-data",
		AutoRotate:  true,
	}

	cfg := r.ToConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "logging", cfg.Cluster)
	assert.Equal(t, DefaultDSN, cfg.Certificates.DSN)
	assert.True(t, cfg.Certificates.AutoRotate)

	topo, err := cfg.ResolveTopology()
	require.NoError(t, err)
	assert.Equal(t, int32(3), topo.Masters.Replicas)
	require.Len(t, topo.Data, 5)
	assert.Equal(t, "es-data-4", topo.Data[4].Storage.ClaimName)
}

func TestWizardResultToConfig_S3Bucket(t *testing.T) {
	t.Parallel()

	cfg := (&WizardResult{Cluster: "logs", Namespace: "default", Image: "es", ClusterSize: 1, Store: StoreS3}).ToConfig()
	assert.Equal(t, "logs-certs", cfg.Certificates.Bucket)
}
