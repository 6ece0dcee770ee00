package certstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/platform/s3"
	"github.com/imamik/estopo/internal/util/naming"
)

// ObjectClient is the subset of the S3 client used by S3Store.
type ObjectClient interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	PutObjectIfAbsent(ctx context.Context, bucket, key string, data []byte) error
}

// S3Store keeps each bundle as the object {prefix}/{identity}.yaml.
type S3Store struct {
	client ObjectClient
	bucket string
	prefix string
}

// NewS3Store creates an S3Store. The bucket must exist.
func NewS3Store(client ObjectClient, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(identity string) string {
	return naming.BundleObjectKey(s.prefix, identity)
}

func (s *S3Store) Load(ctx context.Context, identity string) ([]byte, error) {
	data, err := s.client.GetObject(ctx, s.bucket, s.key(identity))
	if errors.Is(err, s3.ErrObjectNotFound) {
		return nil, fmt.Errorf("bundle %q: %w", identity, certs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *S3Store) Save(ctx context.Context, identity string, data []byte) error {
	err := s.client.PutObjectIfAbsent(ctx, s.bucket, s.key(identity), data)
	if errors.Is(err, s3.ErrPreconditionFailed) {
		return fmt.Errorf("bundle %q: %w", identity, certs.ErrAlreadyExists)
	}
	return err
}

func (s *S3Store) Replace(ctx context.Context, identity string, data []byte) error {
	return s.client.PutObject(ctx, s.bucket, s.key(identity), data)
}
