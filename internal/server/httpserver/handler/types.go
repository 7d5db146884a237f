// Package handler provides HTTP request handlers for the admin API.
package handler

import (
	"time"

	"github.com/iamd3vil/blobnom/internal/core/domain"
)

// Response is the standard admin API response envelope. All JSON
// responses use this format; /metrics is Prometheus text and bypasses
// it.
//
// @design DS-0304
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// StatsResponse is the response body for GET /api/v1/stats.
//
// @design DS-0304
type StatsResponse struct {
	domain.CacheStats
	HitRate float64 `json:"hit_rate"`
}

// SnapshotResponse is the response body for POST /api/v1/snapshot.
//
// @design DS-0304
type SnapshotResponse struct {
	SnapshotID string    `json:"snapshot_id"`
	EntryCount int64     `json:"entry_count"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
	Encrypted  bool      `json:"encrypted"`
}
