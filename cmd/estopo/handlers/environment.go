package handlers

import (
	"context"
	"fmt"
	"path/filepath"

	"k8s.io/client-go/kubernetes"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/certstore"
	"github.com/imamik/estopo/internal/config"
	"github.com/imamik/estopo/internal/pipeline"
	"github.com/imamik/estopo/internal/platform/kube"
	"github.com/imamik/estopo/internal/platform/s3"
	"github.com/imamik/estopo/internal/topology"
	"github.com/imamik/estopo/internal/util/retry"
)

// environment holds everything a command needs to run a pass.
type environment struct {
	cfg        *config.Config
	topology   *topology.Topology
	timeouts   *config.Timeouts
	clientset  kubernetes.Interface
	store      certs.Store
	closeStore func() error
	metrics    *pipeline.Metrics
}

// newEnvironment loads the configuration and opens the certificate store.
// The Kubernetes client is created when needCluster is set or the secret
// store requires it.
func newEnvironment(ctx context.Context, configPath string, needCluster bool) (*environment, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	topo, err := cfg.ResolveTopology()
	if err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}

	env := &environment{
		cfg:      cfg,
		topology: topo,
		timeouts: loadTimeouts(),
		metrics:  pipeline.NewMetrics(),
	}

	if needCluster || cfg.Certificates.Store == config.StoreSecret {
		kubecfg, err := restConfig(cfg.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
		env.clientset, err = newClientset(kubecfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
		}
	}

	env.store, env.closeStore, err = openCertStore(ctx, cfg, env.clientset)
	if err != nil {
		return nil, fmt.Errorf("failed to open certificate store: %w", err)
	}

	return env, nil
}

// Close releases the certificate store.
func (e *environment) Close() error {
	return e.closeStore()
}

func openCertStore(ctx context.Context, cfg *config.Config, clientset kubernetes.Interface) (certs.Store, func() error, error) {
	c := cfg.Certificates
	opts := certstore.Options{
		Kind:      certstore.Kind(c.Store),
		Dir:       relativeTo(cfg.Dir(), c.Dir),
		Clientset: clientset,
		Namespace: cfg.Namespace,
		Bucket:    c.Bucket,
		Prefix:    c.Prefix,
		DSN:       relativeTo(cfg.Dir(), c.DSN),
	}

	if c.Store == config.StoreS3 {
		accessKey, secretKey := s3Credentials()
		client, err := newS3Client(s3.Options{
			Endpoint:  c.Endpoint,
			Region:    c.Region,
			AccessKey: accessKey,
			SecretKey: secretKey,
			PathStyle: c.PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		opts.S3 = client
	}

	return openStore(ctx, opts)
}

// relativeTo resolves a relative path against the config file directory.
func relativeTo(dir, path string) string {
	if path == "" || dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (e *environment) provisioner() *certs.Provisioner {
	c := e.cfg.Certificates
	opts := []certs.ProvisionerOption{
		certs.WithValidity(c.CAValidity, c.LeafValidity),
		certs.WithAutoRotate(c.AutoRotate),
		certs.WithGenerateHook(e.metrics.CertificateGenerated),
	}
	if c.KeySize > 0 {
		opts = append(opts, certs.WithKeySize(c.KeySize))
	}
	return certs.NewProvisioner(e.store, opts...)
}

func (e *environment) pipeline(extra ...pipeline.Option) *pipeline.Pipeline {
	maxRetries := e.timeouts.RetryMaxAttempts
	if e.cfg.Apply.MaxRetries != nil {
		maxRetries = *e.cfg.Apply.MaxRetries
	}

	opts := []pipeline.Option{
		pipeline.WithMetrics(e.metrics),
		pipeline.WithApplyOptions(
			apply.WithParallelism(e.cfg.Apply.Parallelism),
			apply.WithRetry(
				retry.WithMaxRetries(maxRetries),
				retry.WithInitialDelay(e.timeouts.RetryInitialDelay),
				retry.WithMaxDelay(e.timeouts.RetryMaxDelay),
			),
			apply.WithMasterReadiness(e.cfg.WaitForMasters(), e.timeouts.Ready, e.timeouts.ReadyPoll),
		),
	}
	opts = append(opts, extra...)

	return pipeline.New(e.provisioner(), kube.New(e.clientset, e.cfg.Cluster), opts...)
}

func (e *environment) request(rotate, dryRun bool) pipeline.Request {
	return pipeline.Request{
		Topology:  e.topology,
		Cluster:   e.cfg.Cluster,
		Namespace: e.cfg.Namespace,
		Image:     e.cfg.Image,
		Labels:    e.cfg.Labels,
		Rotate:    rotate,
		DryRun:    dryRun,
	}
}
