package training

import (
	"errors"
	"fmt"
)

// Sentinel kinds for training errors.
var (
	ErrAllCandidatesFailed = errors.New("all candidate classifiers failed to fit")
	ErrTrainingInProgress  = errors.New("a training run is already in progress")
)

// CandidateFitError records one classifier family that could not be fitted.
// It never aborts a run on its own.
type CandidateFitError struct {
	Family string
	Err    error
}

func (e *CandidateFitError) Error() string {
	return fmt.Sprintf("candidate %s failed: %v", e.Family, e.Err)
}

func (e *CandidateFitError) Unwrap() error { return e.Err }
