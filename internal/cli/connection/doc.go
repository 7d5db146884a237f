// Package connection manages client connections for blobnom-cli.
//
// This package contains:
//   - manager.go: address resolution and dialing for the cache port
//   - http.go: HTTP client for the admin API
//
// @req: RQ-0305
// @design: DS-0305
package connection
