package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

var (
	// ErrObjectNotFound is returned when the requested key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrPreconditionFailed is returned by PutObjectIfAbsent when the key
	// already exists.
	ErrPreconditionFailed = errors.New("object already exists")
)

// Options configures a Client.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string

	// PathStyle addresses buckets as path segments, required by most
	// self-hosted S3 implementations.
	PathStyle bool
}

// Client wraps the S3 client.
type Client struct {
	s3     *s3.Client
	region string
}

// NewClient creates a new S3 client.
func NewClient(opts Options) (*Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &Client{s3: client, region: opts.Region}, nil
}

// EnsureBucket creates the bucket unless it already exists.
func (c *Client) EnsureBucket(ctx context.Context, bucketName string) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err == nil {
		return nil
	}
	if !isNotFoundError(err) {
		return fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucketName)}
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}
	if _, err := c.s3.CreateBucket(ctx, input); err != nil {
		if isBucketAlreadyOwnedByYou(err) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}
	return nil
}

// PutObject uploads an object, overwriting any existing one.
func (c *Client) PutObject(ctx context.Context, bucketName, key string, data []byte) error {
	_, err := c.s3.PutObject(ctx, c.putInput(bucketName, key, data))
	if err != nil {
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, bucketName, err)
	}
	return nil
}

// PutObjectIfAbsent uploads an object only if the key is unused.
// It returns ErrPreconditionFailed when the key already exists.
func (c *Client) PutObjectIfAbsent(ctx context.Context, bucketName, key string, data []byte) error {
	input := c.putInput(bucketName, key, data)
	input.IfNoneMatch = aws.String("*")

	_, err := c.s3.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("put object %s in bucket %s: %w", key, bucketName, ErrPreconditionFailed)
		}
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, bucketName, err)
	}
	return nil
}

func (c *Client) putInput(bucketName, key string, data []byte) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/yaml"),
	}
}

// GetObject downloads an object from a bucket.
// It returns ErrObjectNotFound when the key or bucket does not exist.
func (c *Client) GetObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("get object %s from bucket %s: %w", key, bucketName, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, bucketName, err)
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	return buf.Bytes(), nil
}

// isBucketAlreadyOwnedByYou checks if the error indicates the bucket exists and is owned by us.
func isBucketAlreadyOwnedByYou(err error) bool {
	if err == nil {
		return false
	}

	var baoby *types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	// that may not return the exact SDK error types
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "BucketAlreadyOwnedByYou"
	}

	return false
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket", "404":
			return true
		}
	}

	return false
}

// isPreconditionFailed checks if a conditional write lost against an
// existing object.
func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusPreconditionFailed
	}

	return false
}
