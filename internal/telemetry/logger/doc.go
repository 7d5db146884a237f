// Package logger provides structured logging for Blobnom.
//
// This package wraps log/slog for structured JSON logging:
//
//   - logger.go: Logger interface, configuration, and level control
//   - context.go: Context-aware logging with request/connection IDs
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Dynamic log level adjustment for config hot reload
//   - Automatic masking of key material and passphrases
//   - Context propagation across server and storage layers
//
// @req RQ-0403
// @design DS-0402
package logger
