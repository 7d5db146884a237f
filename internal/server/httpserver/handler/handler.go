// Package handler provides HTTP request handlers for the admin API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iamd3vil/blobnom/internal/core/domain"
	"github.com/iamd3vil/blobnom/internal/server/config"
	"github.com/iamd3vil/blobnom/internal/storage/snapshot"
	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
)

// Cache reports cache statistics for the stats endpoint.
type Cache interface {
	Stats() domain.CacheStats
}

// Store is the slice of the storage engine the admin API drives. A nil
// Store marks readiness as unconditional and snapshots as unsupported.
type Store interface {
	// Ready reports whether the store can serve requests.
	Ready() error

	// TriggerSnapshot writes a snapshot now.
	TriggerSnapshot(ctx context.Context) (*snapshot.Info, error)
}

// Handler routes admin API requests to their endpoint handlers.
//
// @design DS-0304
type Handler struct {
	cache  Cache
	store  Store
	cfg    *config.ServerConfig
	logger logger.Logger
	mux    *http.ServeMux
}

// New creates a new Handler.
func New(cache Cache, store Store, cfg *config.ServerConfig, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}

	h := &Handler{
		cache:  cache,
		store:  store,
		cfg:    cfg,
		logger: log,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /healthz", h.handleHealthz)
	h.mux.HandleFunc("GET /readyz", h.handleReadyz)

	h.mux.HandleFunc("GET /api/v1/stats", h.handleStats)
	h.mux.HandleFunc("POST /api/v1/snapshot", h.handleSnapshot)
	h.mux.HandleFunc("GET /api/v1/config", h.handleConfig)
}

// writeJSON writes a JSON response with the standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts the request ID placed on the request by the
// RequestID middleware.
func getRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts storage and domain errors to HTTP
// responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		h.writeError(w, r, status, code, err.Error(), nil)
		return
	}

	h.logger.Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "BN-SYS-5000", "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4220"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4130"):
		return http.StatusRequestEntityTooLarge
	case code == "BN-SNAP-5011":
		return http.StatusNotImplemented
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
