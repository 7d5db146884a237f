// Package redisserver provides the RESP2 cache server for Blobnom.
//
// This package implements the wire protocol front end:
//
//   - server.go: listeners, connection loop, size and connection limits
//   - handler.go: command execution and reply construction
//   - info.go: INFO section rendering
//   - ratelimit.go: per-client-IP command rate limiting
//
// All listeners (plain TCP, TLS, unix socket) share one handler.
// Frames are decoded by internal/protocol/resp and executed against
// the cache service.
//
// @req RQ-0303
// @design DS-0301
package redisserver
