// Package resp implements the RESP2 wire protocol core for Blobnom.
package resp

import "strconv"

// Type identifies the RESP2 variant carried by a Value.
//
// Null bulk strings and null arrays are distinct members of the enum
// rather than nil payloads, so no representation is ambiguous and the
// encoder can switch exhaustively over the closed set.
type Type byte

const (
	TypeSimpleString Type = iota
	TypeError
	TypeInteger
	TypeBulkString
	TypeNullBulk
	TypeArray
	TypeNullArray
)

// String returns the protocol name of the type, for logs and errors.
func (t Type) String() string {
	switch t {
	case TypeSimpleString:
		return "simple-string"
	case TypeError:
		return "error"
	case TypeInteger:
		return "integer"
	case TypeBulkString:
		return "bulk-string"
	case TypeNullBulk:
		return "null-bulk"
	case TypeArray:
		return "array"
	case TypeNullArray:
		return "null-array"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// Value is one RESP2 protocol unit. Exactly one payload field is
// meaningful, selected by Type:
//
//   - TypeSimpleString, TypeError: Str
//   - TypeInteger: Int
//   - TypeBulkString: Bulk (a nil Bulk is an empty bulk string, not a
//     null one; null is TypeNullBulk)
//   - TypeArray: Array
//   - TypeNullBulk, TypeNullArray: no payload
//
// Values are transient: constructed per call, never shared between
// concurrent decodes.
type Value struct {
	Type Type

	Str   string
	Int   int64
	Bulk  []byte
	Array []Value
}

// SimpleString returns a simple string value ("+<s>\r\n" on the wire).
func SimpleString(s string) Value {
	return Value{Type: TypeSimpleString, Str: s}
}

// ErrorString returns an error value ("-<s>\r\n" on the wire).
func ErrorString(s string) Value {
	return Value{Type: TypeError, Str: s}
}

// Integer returns an integer value (":<n>\r\n" on the wire).
func Integer(n int64) Value {
	return Value{Type: TypeInteger, Int: n}
}

// Bulk returns a bulk string value carrying b as-is. The caller keeps
// ownership of b; encode reads it without copying.
func Bulk(b []byte) Value {
	return Value{Type: TypeBulkString, Bulk: b}
}

// BulkString returns a bulk string value carrying the bytes of s.
func BulkString(s string) Value {
	return Value{Type: TypeBulkString, Bulk: []byte(s)}
}

// NullBulk returns the distinguished null bulk string ("$-1\r\n").
func NullBulk() Value {
	return Value{Type: TypeNullBulk}
}

// Array returns an array value over the given elements.
func Array(elems ...Value) Value {
	return Value{Type: TypeArray, Array: elems}
}

// NullArray returns the distinguished null array ("*-1\r\n").
func NullArray() Value {
	return Value{Type: TypeNullArray}
}
