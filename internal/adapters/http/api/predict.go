package api

import (
	"fmt"
	"net/http"

	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/serving"
)

// PredictHandler handles scoring requests.
type PredictHandler struct {
	deps         Predictor
	maxBatchSize int
	maxBodyBytes int64
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Predictor, maxBatchSize int, maxBodyBytes int64) *PredictHandler {
	return &PredictHandler{deps: deps, maxBatchSize: maxBatchSize, maxBodyBytes: maxBodyBytes}
}

type batchItemRequest struct {
	EmployeeID string         `json:"employee_id"`
	Employee   map[string]any `json:"employee"`
}

type batchRequest struct {
	Items []batchItemRequest `json:"items"`
}

type batchResponse struct {
	Results []serving.BatchResult `json:"results"`
}

// HandlePredict handles POST /predict. The body is one employee record;
// column aliases such as "salary_band" or "dept" are accepted.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var rec map[string]any
	if err := decodeJSON(w, r, h.maxBodyBytes, &rec); err != nil {
		writeDomainError(w, err)
		return
	}
	emp, err := features.FromMap(rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.Predict(r.Context(), emp)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePredictBatch handles POST /predict/batch. Malformed records are
// reported per item; the rest are still scored.
func (h *PredictHandler) HandlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: items is empty", ErrBadRequest))
		return
	}
	if len(req.Items) > h.maxBatchSize {
		writeDomainError(w, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(req.Items), h.maxBatchSize))
		return
	}

	results := make([]serving.BatchResult, len(req.Items))
	items := make([]serving.BatchItem, 0, len(req.Items))
	slots := make([]int, 0, len(req.Items))
	for i, it := range req.Items {
		results[i].EmployeeID = it.EmployeeID
		emp, err := features.FromMap(it.Employee)
		if err != nil {
			results[i].Err = err
			results[i].Error = err.Error()
			continue
		}
		items = append(items, serving.BatchItem{EmployeeID: it.EmployeeID, Employee: emp})
		slots = append(slots, i)
	}
	for k, res := range h.deps.PredictBatch(r.Context(), items) {
		results[slots[k]] = res
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}
