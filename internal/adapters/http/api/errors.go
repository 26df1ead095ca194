package api

import (
	"errors"
	"net/http"

	"github.com/okian/attrition/internal/adapters/mq/queue"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/domain/training"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrBodyTooLarge  = errors.New("request body too large")
	ErrBatchTooLarge = errors.New("batch too large")
)

// classify maps an error onto an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge), errors.Is(err, ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, model.ErrInsufficientData):
		return http.StatusBadRequest, "insufficient_data"
	case errors.Is(err, model.ErrDuplicateJob):
		return http.StatusConflict, "duplicate_job"
	case errors.Is(err, model.ErrModelNotFound), errors.Is(err, model.ErrJobNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrNoModelAvailable):
		return http.StatusServiceUnavailable, "no_model"
	case errors.Is(err, queue.ErrFull), errors.Is(err, training.ErrTrainingInProgress):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	case errors.Is(err, model.ErrArtifactMissing):
		return http.StatusInternalServerError, "artifact_missing"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
