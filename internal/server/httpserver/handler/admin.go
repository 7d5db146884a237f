// Package handler provides HTTP request handlers for the admin API.
package handler

import (
	"net/http"
	"time"
)

// handleStats handles GET /api/v1/stats.
//
// @design DS-0304
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	s := h.cache.Stats()
	h.writeJSON(w, r, http.StatusOK, StatsResponse{
		CacheStats: s,
		HitRate:    s.HitRate(),
	})
}

// handleSnapshot handles POST /api/v1/snapshot. The engine rejects the
// trigger with BN-SNAP-5011 when the backend persists its own data, and
// that maps to 501.
//
// @design DS-0304
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, r, http.StatusNotImplemented, "BN-SNAP-5011", "backend does not support snapshots", nil)
		return
	}

	info, err := h.store.TriggerSnapshot(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, SnapshotResponse{
		SnapshotID: info.ID,
		EntryCount: info.EntryCount,
		SizeBytes:  info.Size,
		CreatedAt:  time.UnixMilli(info.CreatedAt).UTC(),
		Encrypted:  info.Encrypted,
	})
}

// handleConfig handles GET /api/v1/config. Secrets are masked before
// serialization.
//
// @design DS-0304
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	if h.cfg == nil {
		h.writeError(w, r, http.StatusInternalServerError, "BN-SYS-5000", "configuration unavailable", nil)
		return
	}

	h.writeJSON(w, r, http.StatusOK, h.cfg.Sanitize())
}
