// Package handler provides HTTP request handlers for the admin API.
package handler

import (
	"net/http"
	"time"
)

// handleHealthz handles GET /healthz. It answers as long as the
// process serves HTTP at all.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReadyz handles GET /readyz. Ready means the storage engine is
// open and accepting operations.
func (h *Handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ready(); err != nil {
			h.handleServiceError(w, r, err)
			return
		}
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
