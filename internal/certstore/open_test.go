package certstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		want    any
		wantErr string
	}{
		{
			name: "file",
			opts: Options{Kind: KindFile, Dir: "certs"},
			want: &FileStore{},
		},
		{
			name:    "file without dir",
			opts:    Options{Kind: KindFile},
			wantErr: "requires a directory",
		},
		{
			name: "secret",
			opts: Options{
				Kind:      KindSecret,
				Clientset: fake.NewSimpleClientset(), //nolint:staticcheck // SA1019: NewClientset requires generated apply configurations
				Namespace: "logging",
			},
			want: &SecretStore{},
		},
		{
			name:    "secret without namespace",
			opts:    Options{Kind: KindSecret, Clientset: fake.NewSimpleClientset()}, //nolint:staticcheck // SA1019
			wantErr: "requires a clientset and namespace",
		},
		{
			name:    "s3 without client",
			opts:    Options{Kind: KindS3, Bucket: "certs"},
			wantErr: "requires a client and bucket",
		},
		{
			name: "sqlite",
			opts: Options{Kind: KindSQLite, DSN: ":memory:"},
			want: &SQLiteStore{},
		},
		{
			name:    "sqlite without dsn",
			opts:    Options{Kind: KindSQLite},
			wantErr: "requires a dsn",
		},
		{
			name: "memory",
			opts: Options{Kind: KindMemory},
			want: &MemoryStore{},
		},
		{
			name:    "unknown",
			opts:    Options{Kind: "vault"},
			wantErr: `unknown certificate store "vault"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store, closeFn, err := Open(context.Background(), tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = closeFn() })
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestFileStore_Layout(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "certs")
	store := NewFileStore(dir)

	require.NoError(t, store.Save(context.Background(), "logs", []byte("x")))
	assert.FileExists(t, filepath.Join(dir, "logs.yaml"))

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files are cleaned up")
}
