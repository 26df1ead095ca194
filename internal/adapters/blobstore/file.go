package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/attrition/internal/domain/artifact"
	"github.com/okian/attrition/internal/domain/model"
)

const (
	fileExt             = ".gob.gz"
	directoryPermission = 0o750
)

// FileStore keeps one file per artifact under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Put writes through a temp file and rename so readers never see a partial
// artifact. The handle is the file path.
func (s *FileStore) Put(ctx context.Context, key string, art *artifact.Artifact) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := encode(art)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, key+fileExt)
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create artifact file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write artifact file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync artifact file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish artifact file: %w", err)
	}
	return path, nil
}

// Get reads and verifies the artifact at handle.
func (s *FileStore) Get(ctx context.Context, handle string) (*artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(handle))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", model.ErrArtifactMissing, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}
	return decode(bytes.NewReader(data))
}

// Delete removes the artifact. Deleting a missing artifact is not an error.
func (s *FileStore) Delete(_ context.Context, handle string) error {
	if err := os.Remove(filepath.Clean(handle)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete artifact file: %w", err)
	}
	return nil
}

// Close is a no-op for files.
func (s *FileStore) Close() error { return nil }
