package certstore

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/client-go/kubernetes"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/platform/s3"
)

// Kind selects a backend.
type Kind string

const (
	KindFile   Kind = "file"
	KindSecret Kind = "secret"
	KindS3     Kind = "s3"
	KindSQLite Kind = "sqlite"
	// KindMemory is not persistent and only serves tests.
	KindMemory Kind = "memory"
)

// Kinds returns all backend kinds.
func Kinds() []Kind {
	return []Kind{KindFile, KindSecret, KindS3, KindSQLite, KindMemory}
}

// Options selects and configures a backend. Only the fields of the chosen
// kind are read.
type Options struct {
	Kind Kind

	// file
	Dir string

	// secret
	Clientset kubernetes.Interface
	Namespace string

	// s3
	S3     *s3.Client
	Bucket string
	Prefix string

	// sqlite
	DSN string
}

// Open returns the configured store and a function releasing its resources.
func Open(ctx context.Context, opts Options) (certs.Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Kind {
	case KindFile:
		if opts.Dir == "" {
			return nil, nil, errors.New("file store requires a directory")
		}
		return NewFileStore(opts.Dir), noop, nil

	case KindSecret:
		if opts.Clientset == nil || opts.Namespace == "" {
			return nil, nil, errors.New("secret store requires a clientset and namespace")
		}
		return NewSecretStore(opts.Clientset, opts.Namespace), noop, nil

	case KindS3:
		if opts.S3 == nil || opts.Bucket == "" {
			return nil, nil, errors.New("s3 store requires a client and bucket")
		}
		if err := opts.S3.EnsureBucket(ctx, opts.Bucket); err != nil {
			return nil, nil, err
		}
		return NewS3Store(opts.S3, opts.Bucket, opts.Prefix), noop, nil

	case KindSQLite:
		if opts.DSN == "" {
			return nil, nil, errors.New("sqlite store requires a dsn")
		}
		db, err := OpenSQLite(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		return &SQLiteStore{DB: db}, db.Close, nil

	case KindMemory:
		return NewMemoryStore(), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown certificate store %q", opts.Kind)
	}
}
