package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ModelsHandler handles registry requests.
type ModelsHandler struct {
	deps     Catalog
	maxLimit int
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(deps Catalog, maxLimit int) *ModelsHandler {
	return &ModelsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleList handles GET /models?limit=N. Without a limit the configured
// maximum applies.
func (h *ModelsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid limit %q", ErrBadRequest, limitStr))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit must be <= %d", ErrBadRequest, h.maxLimit))
			return
		}
		n = v
	}
	models, err := h.deps.Models(r.Context(), n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models)
}

// HandleActive handles GET /models/active.
func (h *ModelsHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.ActiveModel(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleActivate handles POST /models/{id}/activate.
func (h *ModelsHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	m, err := h.deps.Activate(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
