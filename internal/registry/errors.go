package registry

import "errors"

// Sentinel errors for registry operations.
var (
	ErrNilArtifact     = errors.New("artifact is nil")
	ErrNoChampion      = errors.New("training report has no chosen candidate")
	ErrFamilyMismatch  = errors.New("artifact family does not match report champion")
	ErrStoreNotSet     = errors.New("metadata store not set")
	ErrBlobStoreNotSet = errors.New("artifact store not set")
)
