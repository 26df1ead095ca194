package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/okian/attrition/internal/domain/artifact"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
)

// Key prefixes for BadgerDB storage
const (
	badgerScheme   = "badger://"
	artifactPrefix = "artifact:"
)

// BadgerStore keeps artifacts as values in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a database in dir. An empty dir keeps the
// database in memory.
func OpenBadger(dir string, log logger.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log: log.Named("badger")})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Put stores the artifact; the handle is badger://<key>.
func (s *BadgerStore) Put(ctx context.Context, key string, art *artifact.Artifact) (string, error) {
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
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(artifactPrefix+key), data)
	})
	if err != nil {
		return "", fmt.Errorf("set artifact: %w", err)
	}
	return badgerScheme + key, nil
}

// Get loads and verifies the artifact behind handle.
func (s *BadgerStore) Get(ctx context.Context, handle string) (*artifact.Artifact, error) {
	key, err := badgerKey(handle)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", model.ErrArtifactMissing, handle)
		}
		if err != nil {
			return fmt.Errorf("get artifact: %w", err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decode(bytes.NewReader(data))
}

// Delete removes the artifact behind handle.
func (s *BadgerStore) Delete(_ context.Context, handle string) error {
	key, err := badgerKey(handle)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete artifact: %w", err)
		}
		return nil
	})
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func badgerKey(handle string) ([]byte, error) {
	key, ok := strings.CutPrefix(handle, badgerScheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrForeignHandle, handle)
	}
	if err := validKey(key); err != nil {
		return nil, err
	}
	return []byte(artifactPrefix + key), nil
}

// badgerLogger routes badger's internal logging through our logger.
type badgerLogger struct {
	log logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}
