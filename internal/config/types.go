package config

import (
	"time"

	"github.com/imamik/estopo/internal/topology"
)

// Config is the content of estopo.yaml.
type Config struct {
	// Cluster is the cluster identity. It names units and keys the
	// certificate bundle.
	Cluster   string `yaml:"cluster"`
	Namespace string `yaml:"namespace"`
	Image     string `yaml:"image"`

	// Labels are added to every object estopo creates.
	Labels map[string]string `yaml:"labels,omitempty"`

	// Kubeconfig overrides the kubeconfig lookup.
	Kubeconfig string `yaml:"kubeconfig,omitempty"`

	// Topology is the inline topology. TopologyFile, when set, takes
	// precedence and is resolved relative to the config file.
	Topology     topology.Spec `yaml:"topology,omitempty"`
	TopologyFile string        `yaml:"topologyFile,omitempty"`

	Certificates CertificatesConfig `yaml:"certificates"`
	Apply        ApplyConfig        `yaml:"apply,omitempty"`
	Metrics      MetricsConfig      `yaml:"metrics,omitempty"`

	// dir is the directory of the loaded file.
	dir string
}

// CertificatesConfig selects the bundle store and certificate lifetimes.
type CertificatesConfig struct {
	// Store is one of file, secret, s3, sqlite or memory.
	Store string `yaml:"store"`

	// Dir is the bundle directory of the file store.
	Dir string `yaml:"dir,omitempty"`

	// Bucket, Prefix, Endpoint, Region and PathStyle configure the s3 store.
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	PathStyle bool   `yaml:"pathStyle,omitempty"`

	// DSN is the sqlite database of the sqlite store.
	DSN string `yaml:"dsn,omitempty"`

	CAValidity   time.Duration `yaml:"caValidity,omitempty"`
	LeafValidity time.Duration `yaml:"leafValidity,omitempty"`
	KeySize      int           `yaml:"keySize,omitempty"`

	// AutoRotate regenerates expired bundles instead of failing.
	AutoRotate bool `yaml:"autoRotate,omitempty"`
}

// ApplyConfig tunes the applier.
type ApplyConfig struct {
	// Parallelism bounds concurrent units per tier.
	Parallelism int `yaml:"parallelism,omitempty"`

	// MaxRetries overrides ESTOPO_RETRY_MAX_ATTEMPTS.
	MaxRetries *int `yaml:"maxRetries,omitempty"`

	// WaitForMasters gates dependent tiers on master quorum. Default true.
	WaitForMasters *bool `yaml:"waitForMasters,omitempty"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	// Pushgateway receives the pass metrics when set.
	Pushgateway string `yaml:"pushgateway,omitempty"`
	Job         string `yaml:"job,omitempty"`
}

// Store kinds accepted in certificates.store.
const (
	StoreFile   = "file"
	StoreSecret = "secret"
	StoreS3     = "s3"
	StoreSQLite = "sqlite"
)

// ValidStores returns the accepted store kinds.
func ValidStores() []string {
	return []string{StoreFile, StoreSecret, StoreS3, StoreSQLite}
}

// Defaults applied by ApplyDefaults.
const (
	DefaultNamespace   = "default"
	DefaultStore       = StoreFile
	DefaultCertDir     = ".estopo/certs"
	DefaultDSN         = ".estopo/certs.db"
	DefaultRegion      = "us-east-1"
	DefaultParallelism = 4
	DefaultMetricsJob  = "estopo"
)

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Certificates.Store == "" {
		c.Certificates.Store = DefaultStore
	}
	switch c.Certificates.Store {
	case StoreFile:
		if c.Certificates.Dir == "" {
			c.Certificates.Dir = DefaultCertDir
		}
	case StoreSQLite:
		if c.Certificates.DSN == "" {
			c.Certificates.DSN = DefaultDSN
		}
	case StoreS3:
		if c.Certificates.Region == "" {
			c.Certificates.Region = DefaultRegion
		}
	}
	if c.Apply.Parallelism == 0 {
		c.Apply.Parallelism = DefaultParallelism
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = DefaultMetricsJob
	}
}

// WaitForMasters reports whether the quorum gate is enabled.
func (c *Config) WaitForMasters() bool {
	return c.Apply.WaitForMasters == nil || *c.Apply.WaitForMasters
}

// Dir returns the directory of the loaded file, or "" for configs loaded
// from bytes.
func (c *Config) Dir() string {
	return c.dir
}
