// Package main provides the entry point for blobnom-server.
//
// The server is the core Blobnom process that provides:
//
//   - RESP2 protocol access to the blob cache over TCP, TLS, and a
//     local Unix socket
//   - Admin HTTP API for health, stats, config, and snapshot triggering
//   - Durable storage via WAL and snapshots, or the Badger backend
//   - Prometheus metrics on the admin listener
//
// Usage:
//
//	blobnom-server [flags]
//	blobnom-server -config /etc/blobnom/config.yaml
//	blobnom-server -config config.yaml -log-level debug
//
// The server loads configuration, initializes storage with recovery,
// and starts all configured listeners. Edits to the config file while
// running adjust the log level in place; other changes are picked up
// on the next restart.
//
// @design DS-0501
package main
