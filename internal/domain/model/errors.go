package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared across layers. These allow errors.Is/As from callers.
var (
	ErrValidation       = errors.New("validation failed")
	ErrInsufficientData = errors.New("insufficient training data")
	ErrNoModelAvailable = errors.New("no model available — run training")
	ErrArtifactMissing  = errors.New("model artifact missing")
	ErrModelNotFound    = errors.New("model not found")
	ErrSchemaMismatch   = errors.New("feature schema mismatch")
	ErrJobNotFound      = errors.New("training job not found")
	ErrDuplicateJob     = errors.New("training job already submitted")
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }
