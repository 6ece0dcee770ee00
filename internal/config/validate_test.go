package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s3Config() *Config {
	size := 1
	cfg := &Config{
		Cluster: "logging",
		Image:   "elasticsearch:7.17",
		Certificates: CertificatesConfig{
			Store: StoreS3,
		},
	}
	cfg.Topology.ClusterSize = &size
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_S3Store(t *testing.T) {
	t.Setenv("ESTOPO_S3_ACCESS_KEY", "")
	t.Setenv("ESTOPO_S3_SECRET_KEY", "")

	err := s3Config().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificates.bucket is required")
	assert.Contains(t, err.Error(), "ESTOPO_S3_ACCESS_KEY")
	assert.Contains(t, err.Error(), "ESTOPO_S3_SECRET_KEY")

	t.Setenv("ESTOPO_S3_ACCESS_KEY", "a")
	t.Setenv("ESTOPO_S3_SECRET_KEY", "s")
	cfg := s3Config()
	cfg.Certificates.Bucket = "certs"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultRegion, cfg.Certificates.Region)
}

func TestValidate_StoreRequirements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store string
		dir   string
		dsn   string
		want  string
	}{
		{name: "file without dir", store: StoreFile, want: "certificates.dir is required"},
		{name: "sqlite without dsn", store: StoreSQLite, want: "certificates.dsn is required"},
		{name: "file", store: StoreFile, dir: "/tmp/certs"},
		{name: "sqlite", store: StoreSQLite, dsn: "/var/lib/estopo/certs.db"},
		{name: "sqlite in memory", store: StoreSQLite, dsn: ":memory:", want: "in-memory database"},
		{name: "sqlite shared memory", store: StoreSQLite, dsn: "file:certs?mode=memory&cache=shared", want: "in-memory database"},
		{name: "secret", store: StoreSecret},
		{name: "memory", store: "memory", want: "certificates.store must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			size := 1
			cfg := &Config{
				Cluster:   "logging",
				Namespace: "default",
				Image:     "es",
				Certificates: CertificatesConfig{
					Store: tt.store,
					Dir:   tt.dir,
					DSN:   tt.dsn,
				},
			}
			cfg.Topology.ClusterSize = &size

			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
