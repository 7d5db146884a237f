// Package handler provides HTTP request handlers for the Blobnom admin
// API.
//
// Files:
//   - handler.go: Handler struct, routing, response plumbing
//   - health.go: liveness and readiness probes
//   - admin.go: stats, snapshot trigger, running config
//   - types.go: response envelope and endpoint payloads
//
// @req RQ-0304
// @design DS-0304
package handler
