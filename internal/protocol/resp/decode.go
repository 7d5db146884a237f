// Package resp implements the RESP2 wire protocol core for Blobnom.
package resp

import (
	"bytes"
	"strconv"
)

var crlf = []byte("\r\n")

// Decode decodes exactly one complete value from the prefix of buf.
//
// On success it returns the value and the remaining unconsumed suffix of
// buf (a sub-slice, nothing is copied), so pipelined frames decode
// back-to-back. ErrIncomplete means buf holds a valid but truncated
// encoding: nothing was consumed and the caller retries once more bytes
// arrive. An *InvalidError means the prefix is not well-formed RESP2 and
// the connection has no safe resynchronization point.
//
// Decoded bulk payloads alias buf; callers that retain them past the
// lifetime of buf must copy.
func Decode(buf []byte) (Value, []byte, error) {
	v, end, err := decodeAt(buf, 0)
	if err != nil {
		return Value{}, nil, err
	}
	// end is computed from length prefixes found in the input; re-check
	// it against the real buffer before slicing.
	if end < 0 || end > len(buf) {
		return Value{}, nil, invalidf("frame end %d outside buffer of %d bytes", end, len(buf))
	}
	return v, buf[end:], nil
}

// decodeAt decodes one value starting at pos and returns it together
// with the offset of the first byte after the frame.
func decodeAt(buf []byte, pos int) (Value, int, error) {
	if pos >= len(buf) {
		return Value{}, 0, ErrIncomplete
	}
	switch buf[pos] {
	case '+':
		line, next, err := decodeLine(buf, pos+1)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: TypeSimpleString, Str: line}, next, nil
	case '-':
		line, next, err := decodeLine(buf, pos+1)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: TypeError, Str: line}, next, nil
	case ':':
		line, next, err := decodeLine(buf, pos+1)
		if err != nil {
			return Value{}, 0, err
		}
		n, perr := strconv.ParseInt(line, 10, 64)
		if perr != nil {
			return Value{}, 0, invalidf("invalid integer %q", line)
		}
		return Value{Type: TypeInteger, Int: n}, next, nil
	case '$':
		return decodeBulk(buf, pos+1)
	case '*':
		return decodeArray(buf, pos+1)
	default:
		return Value{}, 0, invalidf("unknown type byte %q", buf[pos])
	}
}

// decodeLine reads up to the next CRLF and returns the bytes before it
// as a string, plus the offset just past the terminator.
func decodeLine(buf []byte, pos int) (string, int, error) {
	i := bytes.Index(buf[pos:], crlf)
	if i < 0 {
		return "", 0, ErrIncomplete
	}
	return string(buf[pos : pos+i]), pos + i + 2, nil
}

func decodeBulk(buf []byte, pos int) (Value, int, error) {
	line, next, err := decodeLine(buf, pos)
	if err != nil {
		return Value{}, 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return Value{}, 0, invalidf("invalid bulk length %q", line)
	}
	switch {
	case n == -1:
		return Value{Type: TypeNullBulk}, next, nil
	case n < -1:
		return Value{}, 0, invalidf("invalid bulk length %d", n)
	}
	// Compare against the bytes actually present instead of computing
	// next+n+2 first, so a hostile length cannot overflow the offset.
	if n > len(buf)-next-2 {
		return Value{}, 0, ErrIncomplete
	}
	end := next + n + 2
	if buf[end-2] != '\r' || buf[end-1] != '\n' {
		return Value{}, 0, invalidf("invalid bulk terminator")
	}
	return Value{Type: TypeBulkString, Bulk: buf[next : next+n]}, end, nil
}

func decodeArray(buf []byte, pos int) (Value, int, error) {
	line, next, err := decodeLine(buf, pos)
	if err != nil {
		return Value{}, 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return Value{}, 0, invalidf("invalid array length %q", line)
	}
	switch {
	case n == -1:
		return Value{Type: TypeNullArray}, next, nil
	case n < -1:
		return Value{}, 0, invalidf("invalid array length %d", n)
	}
	// Cap the initial allocation: the header can claim any count, so
	// growth must track bytes actually present in the buffer.
	elems := make([]Value, 0, min(n, 64))
	for i := 0; i < n; i++ {
		var elem Value
		elem, next, err = decodeAt(buf, next)
		if err != nil {
			return Value{}, 0, err
		}
		elems = append(elems, elem)
	}
	return Value{Type: TypeArray, Array: elems}, next, nil
}
