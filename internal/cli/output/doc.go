// Package output provides output formatting for blobnom-cli.
//
// This package contains:
//   - formatter.go: Format selection and the Formatter interface
//   - plain.go: unadorned text output for scripting
//   - json.go: JSON output
//   - table.go: aligned key/value tables
//   - spinner.go: progress indicator for slow operations
//
// @req: RQ-0305
// @design: DS-0305
package output
