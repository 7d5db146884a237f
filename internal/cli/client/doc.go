// Package client provides the RESP client used by blobnom-cli.
//
// This package contains:
//   - client.go: connection handling, command round trips, typed helpers
//
// @req: RQ-0305
// @design: DS-0305
package client
