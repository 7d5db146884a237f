// Package httpserver provides the admin HTTP server for Blobnom.
//
// The admin endpoint is an operations surface next to the RESP cache
// port: health probes, Prometheus metrics, cache statistics, snapshot
// triggering, and the sanitized running configuration.
//
// Files:
//   - server.go: HTTP server lifecycle (bind, serve, shutdown)
//   - router.go: route table and per-route middleware chains
//   - middleware.go: request ID, access logging, rate limit, recovery
//
// Request handlers live in the handler subpackage.
//
// @req RQ-0304
// @design DS-0304
package httpserver
