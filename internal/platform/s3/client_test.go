package s3

import (
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func TestIsBucketAlreadyOwnedByYou(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"typed error", &s3types.BucketAlreadyOwnedByYou{}, true},
		{"wrapped typed error", fmt.Errorf("create: %w", &s3types.BucketAlreadyOwnedByYou{}), true},
		{"api error code", &smithy.GenericAPIError{Code: "BucketAlreadyOwnedByYou"}, true},
		{"owned by someone else", &smithy.GenericAPIError{Code: "BucketAlreadyExists"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isBucketAlreadyOwnedByYou(tt.err); got != tt.want {
				t.Errorf("isBucketAlreadyOwnedByYou() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"no such key", &s3types.NoSuchKey{}, true},
		{"no such bucket", &s3types.NoSuchBucket{}, true},
		{"not found", &s3types.NotFound{}, true},
		{"api error code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"wrapped", fmt.Errorf("get: %w", &smithy.GenericAPIError{Code: "404"}), true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isNotFoundError(tt.err); got != tt.want {
				t.Errorf("isNotFoundError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPreconditionFailed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"precondition failed", &smithy.GenericAPIError{Code: "PreconditionFailed"}, true},
		{"conditional conflict", &smithy.GenericAPIError{Code: "ConditionalRequestConflict"}, true},
		{"other code", &smithy.GenericAPIError{Code: "InternalError"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isPreconditionFailed(tt.err); got != tt.want {
				t.Errorf("isPreconditionFailed() = %v, want %v", got, tt.want)
			}
		})
	}
}
