// Package blobstore persists model artifacts. Artifacts are gob-encoded,
// checksummed with SHA-256 and gzip-compressed; the returned handle is what
// the registry records as the model's artifact path.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/attrition/internal/domain/artifact"
	"github.com/okian/attrition/pkg/logger"
)

// Sentinel kinds for artifact storage errors.
var (
	ErrArtifactCorrupt = errors.New("model artifact corrupt")
	ErrUnknownBackend  = errors.New("unknown artifact backend")
	ErrInvalidKey      = errors.New("invalid artifact key")
	ErrForeignHandle   = errors.New("artifact handle belongs to another backend")
)

// Backend names.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Store reads and writes artifacts. Get on an absent handle returns an error
// wrapping model.ErrArtifactMissing.
type Store interface {
	Put(ctx context.Context, key string, art *artifact.Artifact) (handle string, err error)
	Get(ctx context.Context, handle string) (*artifact.Artifact, error)
	Delete(ctx context.Context, handle string) error
	Close() error
}

// Open builds the configured backend rooted at dir.
func Open(backend, dir string, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendBadger:
		return OpenBadger(dir, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
