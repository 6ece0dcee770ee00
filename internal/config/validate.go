package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// Validate validates the configuration and returns an error if invalid.
// The topology is resolved as part of validation.
func (c *Config) Validate() error {
	var errs []error

	// Cluster: required, DNS label
	if c.Cluster == "" {
		errs = append(errs, errors.New("cluster is required"))
	} else if msgs := validation.IsDNS1123Label(c.Cluster); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("cluster %q is not a DNS label: %s", c.Cluster, strings.Join(msgs, "; ")))
	}

	if msgs := validation.IsDNS1123Label(c.Namespace); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("namespace %q is not a DNS label: %s", c.Namespace, strings.Join(msgs, "; ")))
	}

	if c.Image == "" {
		errs = append(errs, errors.New("image is required"))
	}

	errs = append(errs, c.validateCertificates()...)

	if c.Apply.Parallelism < 0 {
		errs = append(errs, errors.New("apply.parallelism must not be negative"))
	}
	if c.Apply.MaxRetries != nil && *c.Apply.MaxRetries < 0 {
		errs = append(errs, errors.New("apply.maxRetries must not be negative"))
	}

	if c.TopologyFile != "" && (len(c.Topology.Groups) > 0 || c.Topology.IsSimple()) {
		errs = append(errs, errors.New("topology and topologyFile are mutually exclusive"))
	} else if _, err := c.ResolveTopology(); err != nil {
		errs = append(errs, fmt.Errorf("topology: %w", err))
	}

	return errors.Join(errs...)
}

func (c *Config) validateCertificates() []error {
	var errs []error
	certs := c.Certificates

	if !slices.Contains(ValidStores(), certs.Store) {
		return []error{fmt.Errorf("certificates.store must be one of: %v", ValidStores())}
	}

	switch certs.Store {
	case StoreS3:
		if certs.Bucket == "" {
			errs = append(errs, errors.New("certificates.bucket is required for the s3 store"))
		}
		if os.Getenv("ESTOPO_S3_ACCESS_KEY") == "" {
			errs = append(errs, errors.New("ESTOPO_S3_ACCESS_KEY environment variable required for the s3 store"))
		}
		if os.Getenv("ESTOPO_S3_SECRET_KEY") == "" {
			errs = append(errs, errors.New("ESTOPO_S3_SECRET_KEY environment variable required for the s3 store"))
		}
	case StoreFile:
		if certs.Dir == "" {
			errs = append(errs, errors.New("certificates.dir is required for the file store"))
		}
	case StoreSQLite:
		switch {
		case certs.DSN == "":
			errs = append(errs, errors.New("certificates.dsn is required for the sqlite store"))
		case isMemoryDSN(certs.DSN):
			errs = append(errs, fmt.Errorf("certificates.dsn %q is an in-memory database; bundles must outlive the process", certs.DSN))
		}
	}

	if certs.CAValidity < 0 || certs.LeafValidity < 0 {
		errs = append(errs, errors.New("certificate validity must not be negative"))
	}
	if certs.CAValidity > 0 && certs.LeafValidity > certs.CAValidity {
		errs = append(errs, errors.New("certificates.leafValidity must not exceed caValidity"))
	}
	if certs.KeySize != 0 && certs.KeySize < 2048 {
		errs = append(errs, errors.New("certificates.keySize must be at least 2048"))
	}

	return errs
}

// isMemoryDSN reports whether an sqlite DSN opens an in-memory database.
func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
