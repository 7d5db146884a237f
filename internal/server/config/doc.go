// Package config provides server configuration for Blobnom.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (addresses, paths, limits)
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files and environment variables. Keys are dotted
// paths matching the struct tags, so the environment override for
// server.resp.address is BLOBNOM_SERVER_RESP_ADDRESS.
//
// @req RQ-0502
// @design DS-0502
package config
