package resp

import (
	"strings"
	"testing"
)

// ============================================================
// Encode Tests - Wire Forms
// ============================================================

func TestEncode_WireForms(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{
			name:  "simple string",
			value: SimpleString("OK"),
			want:  "+OK\r\n",
		},
		{
			name:  "empty simple string",
			value: SimpleString(""),
			want:  "+\r\n",
		},
		{
			name:  "error",
			value: ErrorString("ERR something"),
			want:  "-ERR something\r\n",
		},
		{
			name:  "integer",
			value: Integer(42),
			want:  ":42\r\n",
		},
		{
			name:  "zero integer",
			value: Integer(0),
			want:  ":0\r\n",
		},
		{
			name:  "negative integer",
			value: Integer(-1),
			want:  ":-1\r\n",
		},
		{
			name:  "bulk string",
			value: BulkString("hello"),
			want:  "$5\r\nhello\r\n",
		},
		{
			name:  "empty bulk string",
			value: BulkString(""),
			want:  "$0\r\n\r\n",
		},
		{
			name:  "nil payload is empty bulk not null",
			value: Bulk(nil),
			want:  "$0\r\n\r\n",
		},
		{
			name:  "binary bulk string",
			value: Bulk([]byte{0x00, 0x01, 0x02}),
			want:  "$3\r\n\x00\x01\x02\r\n",
		},
		{
			name:  "null bulk",
			value: NullBulk(),
			want:  "$-1\r\n",
		},
		{
			name:  "array",
			value: Array(BulkString("GET"), BulkString("key")),
			want:  "*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n",
		},
		{
			name:  "empty array",
			value: Array(),
			want:  "*0\r\n",
		},
		{
			name:  "null array",
			value: NullArray(),
			want:  "*-1\r\n",
		},
		{
			name:  "nested array",
			value: Array(Array(Integer(1), Integer(2)), SimpleString("x")),
			want:  "*2\r\n*2\r\n:1\r\n:2\r\n+x\r\n",
		},
		{
			name:  "mixed array",
			value: Array(SimpleString("PONG"), Integer(7), NullBulk()),
			want:  "*3\r\n+PONG\r\n:7\r\n$-1\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.value)
			if string(got) != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ============================================================
// Encode Tests - Byte-Length Prefix
// ============================================================

func TestEncode_BulkLengthIsByteLength(t *testing.T) {
	// Multi-byte runes: 2 runes, 6 bytes. The prefix counts bytes.
	value := BulkString("日本")
	want := "$6\r\n日本\r\n"
	if got := Encode(value); string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncode_BinaryRoundTrip(t *testing.T) {
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}

	wire := Encode(Bulk(payload))
	v, rest, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %q, want empty", rest)
	}
	if v.Type != TypeBulkString || string(v.Bulk) != string(payload) {
		t.Error("binary payload did not round-trip exactly")
	}
}

// ============================================================
// AppendEncode Tests
// ============================================================

func TestAppendEncode_AppendsToDst(t *testing.T) {
	dst := []byte("prefix:")
	dst = AppendEncode(dst, SimpleString("OK"))
	if string(dst) != "prefix:+OK\r\n" {
		t.Errorf("got %q, want %q", dst, "prefix:+OK\r\n")
	}

	// Back-to-back replies share one buffer.
	dst = AppendEncode(dst[:0], Integer(1))
	dst = AppendEncode(dst, Integer(2))
	if string(dst) != ":1\r\n:2\r\n" {
		t.Errorf("got %q, want %q", dst, ":1\r\n:2\r\n")
	}
}

// ============================================================
// Encode Tests - Invariant Violation
// ============================================================

func TestEncode_UnknownTypePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for unknown value type")
		}
		if !strings.Contains(r.(string), "unknown value type") {
			t.Errorf("panic = %v, want unknown value type message", r)
		}
	}()
	Encode(Value{Type: Type(99)})
}
