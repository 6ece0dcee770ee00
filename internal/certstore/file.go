package certstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/util/naming"
)

// FileStore keeps one {identity}.yaml per bundle in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(identity string) string {
	return filepath.Join(s.dir, naming.BundleFile(identity))
}

func (s *FileStore) Load(_ context.Context, identity string) ([]byte, error) {
	data, err := os.ReadFile(s.path(identity))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("bundle %q: %w", identity, certs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate bundle: %w", err)
	}
	return data, nil
}

// Save writes the bundle to a temp file and hard-links it into place, so
// readers never observe a partial file and a second writer fails.
func (s *FileStore) Save(_ context.Context, identity string, data []byte) error {
	tmp, err := s.writeTemp(identity, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, s.path(identity)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("bundle %q: %w", identity, certs.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to write certificate bundle: %w", err)
	}
	return nil
}

func (s *FileStore) Replace(_ context.Context, identity string, data []byte) error {
	tmp, err := s.writeTemp(identity, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path(identity)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace certificate bundle: %w", err)
	}
	return nil
}

func (s *FileStore) writeTemp(identity string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create certificate directory: %w", err)
	}

	f, err := os.CreateTemp(s.dir, "."+identity+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return name, nil
}
