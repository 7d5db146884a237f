// Package command provides CLI command definitions for blobnom-cli.
//
// It uses urfave/cli/v2 for command parsing and supports both
// single-command mode and interactive REPL mode.
//
// This package contains:
//   - root.go: application setup, global flags, shared helpers
//   - blob.go: cache commands (ping, get, set, del, exists, info)
//   - admin.go: admin API commands (stats, backup)
//   - version.go: version command
//
// @req: RQ-0305
// @design: DS-0305
package command
