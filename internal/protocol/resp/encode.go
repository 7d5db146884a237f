// Package resp implements the RESP2 wire protocol core for Blobnom.
package resp

import (
	"fmt"
	"strconv"
)

// Encode returns the exact wire encoding of v.
func Encode(v Value) []byte {
	return AppendEncode(nil, v)
}

// AppendEncode appends the wire encoding of v to dst and returns the
// extended slice.
//
// Encoding is total over the closed Value set: every variant has exactly
// one wire form and cannot fail. A Value carrying a Type outside the set
// is an internal invariant violation and panics; it is never surfaced to
// a peer as a protocol error.
func AppendEncode(dst []byte, v Value) []byte {
	switch v.Type {
	case TypeSimpleString:
		dst = append(dst, '+')
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case TypeError:
		dst = append(dst, '-')
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case TypeInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, crlf...)
	case TypeBulkString:
		// Length prefix is the payload's byte length, never a rune
		// count, so binary payloads round-trip exactly.
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v.Bulk...)
		return append(dst, crlf...)
	case TypeNullBulk:
		return append(dst, "$-1\r\n"...)
	case TypeArray:
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, crlf...)
		for _, elem := range v.Array {
			dst = AppendEncode(dst, elem)
		}
		return dst
	case TypeNullArray:
		return append(dst, "*-1\r\n"...)
	default:
		panic(fmt.Sprintf("resp: encode of unknown value type %d", v.Type))
	}
}
