package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"k8s.io/apimachinery/pkg/util/validation"
)

// DefaultImage is preselected by the wizard.
const DefaultImage = "docker.elastic.co/elasticsearch/elasticsearch:7.17.28"

// WizardResult holds the user's choices from the wizard.
type WizardResult struct {
	Cluster     string
	Namespace   string
	Image       string
	ClusterSize int
	Store       string
	ClaimPrefix string
	AutoRotate  bool
}

// RunWizard asks for the settings of a starter configuration.
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{
		Namespace:   DefaultNamespace,
		Image:       DefaultImage,
		ClusterSize: 3,
		Store:       StoreSecret,
	}

	form := huh.NewForm(
		// Cluster identity
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster name").
				Description("Names every unit and keys the certificate bundle (DNS label)").
				Placeholder("logging").
				Value(&result.Cluster).
				Validate(validateClusterName),
			huh.NewInput().
				Title("Namespace").
				Value(&result.Namespace).
				Validate(validateNamespace),
			huh.NewInput().
				Title("Image").
				Value(&result.Image),
		),

		// Size
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Data nodes").
				Description("One data group per node; masters are min(size, 3)").
				Options(
					huh.NewOption("1 data node", 1),
					huh.NewOption("3 data nodes", 3),
					huh.NewOption("5 data nodes", 5),
					huh.NewOption("7 data nodes", 7),
				).
				Value(&result.ClusterSize),
			huh.NewInput().
				Title("Volume claim prefix (optional)").
				Description("Data node i binds claim {prefix}-{i}. Leave empty for emptyDir storage.").
				Value(&result.ClaimPrefix),
		),

		// Certificates
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Certificate store").
				Options(
					huh.NewOption("Kubernetes Secret", StoreSecret),
					huh.NewOption("Local directory", StoreFile),
					huh.NewOption("SQLite database", StoreSQLite),
					huh.NewOption("S3 bucket", StoreS3),
				).
				Value(&result.Store),
			huh.NewConfirm().
				Title("Rotate expired certificates automatically?").
				Value(&result.AutoRotate),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}

	return result, nil
}

// ToConfig converts the wizard result to a Config in simple topology mode.
func (r *WizardResult) ToConfig() *Config {
	size := r.ClusterSize
	cfg := &Config{
		Cluster:   strings.ToLower(r.Cluster),
		Namespace: r.Namespace,
		Image:     r.Image,
		Certificates: CertificatesConfig{
			Store:      r.Store,
			AutoRotate: r.AutoRotate,
		},
	}
	cfg.Topology.ClusterSize = &size
	cfg.Topology.Storage.ClaimPrefix = r.ClaimPrefix
	if r.Store == StoreS3 {
		cfg.Certificates.Bucket = cfg.Cluster + "-certs"
	}
	cfg.ApplyDefaults()
	return cfg
}

// validateClusterName validates the cluster name.
func validateClusterName(s string) error {
	if s == "" {
		return fmt.Errorf("cluster name is required")
	}
	if msgs := validation.IsDNS1123Label(strings.ToLower(s)); len(msgs) > 0 {
		return fmt.Errorf("cluster name %s", strings.Join(msgs, "; "))
	}
	return nil
}

func validateNamespace(s string) error {
	if msgs := validation.IsDNS1123Label(s); len(msgs) > 0 {
		return fmt.Errorf("namespace %s", strings.Join(msgs, "; "))
	}
	return nil
}
