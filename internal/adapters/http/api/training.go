package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
)

// TrainingHandler handles training job requests.
type TrainingHandler struct {
	deps         TrainingScheduler
	maxBodyBytes int64
}

// NewTrainingHandler creates a new training handler.
func NewTrainingHandler(deps TrainingScheduler, maxBodyBytes int64) *TrainingHandler {
	return &TrainingHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

type trainRequest struct {
	JobID       string           `json:"job_id"`
	RequestedBy string           `json:"requested_by"`
	Rows        []map[string]any `json:"rows"`
}

// HandleSubmit handles POST /train. It answers 202 with the queued job.
func (h *TrainingHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	rows := make([]model.TrainingRow, 0, len(req.Rows))
	for i, rec := range req.Rows {
		row, err := features.FromLabeledMap(rec)
		if err != nil {
			writeDomainError(w, fmt.Errorf("row %d: %w", i, err))
			return
		}
		rows = append(rows, row)
	}

	status, err := h.deps.SubmitTraining(r.Context(), model.TrainingJob{
		ID:          strings.TrimSpace(req.JobID),
		Rows:        rows,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/train/"+status.ID)
	writeJSON(w, http.StatusAccepted, status)
}

// HandleStatus handles GET /train/{job_id}.
func (h *TrainingHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.deps.Job(r.Context(), r.PathValue("job_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
