// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Collaborators are reached through the factory
// variables below so handlers can be tested against fakes.
package handlers

import (
	"fmt"
	"io"
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	ctrlconfig "sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/imamik/estopo/internal/certstore"
	"github.com/imamik/estopo/internal/config"
	"github.com/imamik/estopo/internal/platform/s3"
	"github.com/imamik/estopo/internal/ui/report"
	"github.com/imamik/estopo/internal/ui/tui"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// findConfigFile locates estopo.yaml in the working directory or a parent.
	findConfigFile = config.FindConfigFile

	// loadConfigFile loads and validates a config file.
	loadConfigFile = config.Load

	// loadTimeouts reads the ESTOPO_TIMEOUT_* and ESTOPO_RETRY_* variables.
	loadTimeouts = config.LoadTimeouts

	// s3Credentials reads ESTOPO_S3_ACCESS_KEY and ESTOPO_S3_SECRET_KEY.
	s3Credentials = config.S3Credentials

	// restConfig resolves an explicit kubeconfig path, or else the
	// controller-runtime chain: --kubeconfig, KUBECONFIG, in-cluster,
	// ~/.kube/config.
	restConfig = func(kubeconfig string) (*rest.Config, error) {
		if kubeconfig != "" {
			return clientcmd.BuildConfigFromFlags("", kubeconfig)
		}
		return ctrlconfig.GetConfig()
	}

	// newClientset creates a Kubernetes clientset.
	newClientset = func(cfg *rest.Config) (kubernetes.Interface, error) {
		return kubernetes.NewForConfig(cfg)
	}

	// newS3Client creates the client of the s3 certificate store.
	newS3Client = s3.NewClient

	// openStore opens a certificate store backend.
	openStore = certstore.Open

	// stdout receives command output.
	stdout io.Writer = os.Stdout

	// isInteractive reports whether stdout is a terminal.
	isInteractive = func() bool {
		return report.IsInteractive(os.Stdout)
	}

	// runApplyTUI runs a pass under the live view.
	runApplyTUI = tui.RunApplyTUI

	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// runWizard runs the init wizard.
	runWizard = config.RunWizard

	// saveConfig writes the config to a file.
	saveConfig = config.Save
)

// loadConfig loads and validates the configuration.
// If configPath is empty, it looks for estopo.yaml in the current directory
// and its parents.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w\nRun 'estopo init' to create one", err)
		}
		configPath = path
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
