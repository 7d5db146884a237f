// Package repl provides the interactive mode for blobnom-cli.
//
// This package contains:
//   - repl.go: the read-eval-print loop and reply rendering
//   - history.go: file-backed command history
//   - completer.go: command-name completion and suggestions
//
// @req: RQ-0305
// @design: DS-0305
package repl
