// Package resp implements the RESP2 wire protocol core for Blobnom.
//
// The package is split into three pure, stateless stages consumed in
// sequence by the connection layer:
//
//   - decode.go: Decode one self-delimited frame from a byte buffer
//   - parse.go: Interpret a decoded frame as a typed client command
//   - encode.go: Serialize a reply value to exact wire bytes
//
// All stages operate on caller-supplied buffers, keep no state between
// calls, and are safe for concurrent use on independent buffers. Decode
// distinguishes an incomplete frame (retry once more bytes arrive) from
// a malformed one (the connection is corrupt and must be closed); the
// split taxonomy is defined in errors.go.
//
// Protocol limits (maximum command size, rate limiting) are enforced by
// the connection layer, not here.
//
// @req RQ-0201
// @design DS-0201
package resp
