package blobstore

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/okian/attrition/internal/domain/artifact"
)

// envelope is the stored form: checksum of the raw gob stream plus the
// compressed stream itself.
type envelope struct {
	Format     int
	Checksum   string
	Compressed []byte
}

const envelopeFormat = 1

func encode(art *artifact.Artifact) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(art); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	sum := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	var out bytes.Buffer
	env := envelope{Format: envelopeFormat, Checksum: hex.EncodeToString(sum[:]), Compressed: compressed.Bytes()}
	if err := gob.NewEncoder(&out).Encode(env); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out.Bytes(), nil
}

func decode(r io.Reader) (*artifact.Artifact, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: read envelope: %w", ErrArtifactCorrupt, err)
	}
	if env.Format != envelopeFormat {
		return nil, fmt.Errorf("%w: unsupported format %d", ErrArtifactCorrupt, env.Format)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.Compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrArtifactCorrupt, err)
	}
	defer func() { _ = gzr.Close() }()
	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrArtifactCorrupt, err)
	}

	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrArtifactCorrupt, env.Checksum, got)
	}

	var art artifact.Artifact
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&art); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %w", ErrArtifactCorrupt, err)
	}
	return &art, nil
}
