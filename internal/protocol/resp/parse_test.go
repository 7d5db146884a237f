package resp

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

// parseWire decodes one frame from the wire bytes and parses it.
func parseWire(t *testing.T, wire string) (Command, error) {
	t.Helper()
	v, rest, err := Decode([]byte(wire))
	if err != nil {
		t.Fatalf("decode %q: %v", wire, err)
	}
	if len(rest) != 0 {
		t.Fatalf("decode %q left %q unconsumed", wire, rest)
	}
	return ParseCommand(v)
}

// ============================================================
// ParseCommand Tests - Supported Commands
// ============================================================

func TestParseCommand_Supported(t *testing.T) {
	tests := []struct {
		name string
		wire string
		want Command
	}{
		{
			name: "GET",
			wire: "*2\r\n$3\r\nGET\r\n$7\r\nmykey42\r\n",
			want: Get{Key: "mykey42"},
		},
		{
			name: "SET",
			wire: "*3\r\n$3\r\nSET\r\n$5\r\nmykey\r\n$11\r\nhello world\r\n",
			want: Set{Key: "mykey", Value: []byte("hello world")},
		},
		{
			name: "SET with binary value",
			wire: "*3\r\n$3\r\nSET\r\n$3\r\nbin\r\n$3\r\n\x00\xff\x01\r\n",
			want: Set{Key: "bin", Value: []byte{0x00, 0xff, 0x01}},
		},
		{
			name: "DEL",
			wire: "*2\r\n$3\r\nDEL\r\n$5\r\nmykey\r\n",
			want: Del{Key: "mykey"},
		},
		{
			name: "EXISTS",
			wire: "*2\r\n$6\r\nEXISTS\r\n$5\r\nmykey\r\n",
			want: Exists{Key: "mykey"},
		},
		{
			name: "PING bare",
			wire: "*1\r\n$4\r\nPING\r\n",
			want: Ping{},
		},
		{
			name: "PING with message",
			wire: "*2\r\n$4\r\nPING\r\n$5\r\nhello\r\n",
			want: Ping{Message: ptr("hello")},
		},
		{
			name: "INFO bare",
			wire: "*1\r\n$4\r\nINFO\r\n",
			want: Info{},
		},
		{
			name: "INFO with section",
			wire: "*2\r\n$4\r\nINFO\r\n$6\r\nserver\r\n",
			want: Info{Section: ptr("server")},
		},
		{
			name: "COMMAND",
			wire: "*1\r\n$7\r\nCOMMAND\r\n",
			want: CommandList{},
		},
		{
			name: "QUIT",
			wire: "*1\r\n$4\r\nQUIT\r\n",
			want: Quit{},
		},
		{
			name: "simple string command name",
			wire: "*1\r\n+PING\r\n",
			want: Ping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWire(t, tt.wire)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("command = %#v, want %#v", got, tt.want)
			}
		})
	}
}

// ============================================================
// ParseCommand Tests - Case Insensitivity
// ============================================================

func TestParseCommand_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"GET", "get", "GeT", "gEt"} {
		wire := "*2\r\n$3\r\n" + name + "\r\n$5\r\nmykey\r\n"
		got, err := parseWire(t, wire)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		want := Get{Key: "mykey"}
		if got != want {
			t.Errorf("%s: command = %#v, want %#v", name, got, want)
		}
	}
}

// ============================================================
// ParseCommand Tests - Unknown Commands
// ============================================================

func TestParseCommand_Unknown(t *testing.T) {
	tests := []struct {
		name string
		wire string
		want string
	}{
		{
			name: "unknown with arg",
			wire: "*2\r\n$7\r\nUNKNOWN\r\n$3\r\narg\r\n",
			want: "UNKNOWN",
		},
		{
			name: "lowercase name is upper-cased",
			wire: "*1\r\n$5\r\nhello\r\n",
			want: "HELLO",
		},
		{
			name: "unsupported redis command",
			wire: "*3\r\n$6\r\nEXPIRE\r\n$3\r\nkey\r\n$2\r\n10\r\n",
			want: "EXPIRE",
		},
		{
			name: "any arity accepted",
			wire: "*4\r\n$4\r\nMGET\r\n$1\r\na\r\n$1\r\nb\r\n$1\r\nc\r\n",
			want: "MGET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWire(t, tt.wire)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			u, ok := got.(Unknown)
			if !ok {
				t.Fatalf("command = %#v, want Unknown", got)
			}
			if u.Name != tt.want {
				t.Errorf("name = %q, want %q", u.Name, tt.want)
			}
		})
	}
}

// ============================================================
// ParseCommand Tests - Shape and Arity Faults
// ============================================================

func TestParseCommand_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		wantMsg string
	}{
		{
			name:    "top-level simple string",
			value:   SimpleString("PING"),
			wantMsg: "commands must be arrays",
		},
		{
			name:    "top-level integer",
			value:   Integer(1),
			wantMsg: "commands must be arrays",
		},
		{
			name:    "top-level null array",
			value:   NullArray(),
			wantMsg: "commands must be arrays",
		},
		{
			name:    "empty array",
			value:   Value{Type: TypeArray, Array: []Value{}},
			wantMsg: "empty command array",
		},
		{
			name:    "integer command name",
			value:   Array(Integer(1)),
			wantMsg: "command name must be a string",
		},
		{
			name:    "null command name",
			value:   Array(NullBulk()),
			wantMsg: "command name must be a string",
		},
		{
			name:    "GET with no args",
			value:   Array(BulkString("GET")),
			wantMsg: "GET requires exactly 1 argument",
		},
		{
			name:    "GET with two args",
			value:   Array(BulkString("GET"), BulkString("a"), BulkString("b")),
			wantMsg: "GET requires exactly 1 argument",
		},
		{
			name:    "SET with one arg",
			value:   Array(BulkString("SET"), BulkString("key")),
			wantMsg: "SET requires exactly 2 arguments",
		},
		{
			name:    "SET with three args",
			value:   Array(BulkString("SET"), BulkString("k"), BulkString("v"), BulkString("x")),
			wantMsg: "SET requires exactly 2 arguments",
		},
		{
			name:    "DEL with no args",
			value:   Array(BulkString("DEL")),
			wantMsg: "DEL requires exactly 1 argument",
		},
		{
			name:    "EXISTS with two args",
			value:   Array(BulkString("EXISTS"), BulkString("a"), BulkString("b")),
			wantMsg: "EXISTS requires exactly 1 argument",
		},
		{
			name:    "PING with two args",
			value:   Array(BulkString("PING"), BulkString("a"), BulkString("b")),
			wantMsg: "PING accepts at most 1 argument",
		},
		{
			name:    "INFO with two args",
			value:   Array(BulkString("INFO"), BulkString("a"), BulkString("b")),
			wantMsg: "INFO accepts at most 1 argument",
		},
		{
			name:    "COMMAND with arg",
			value:   Array(BulkString("COMMAND"), BulkString("docs")),
			wantMsg: "COMMAND takes no arguments",
		},
		{
			name:    "QUIT with arg",
			value:   Array(BulkString("QUIT"), BulkString("now")),
			wantMsg: "QUIT takes no arguments",
		},
		{
			name:    "null as text argument",
			value:   Array(BulkString("GET"), NullBulk()),
			wantMsg: "cannot use null as string argument",
		},
		{
			name:    "null as byte argument",
			value:   Array(BulkString("SET"), BulkString("key"), NullBulk()),
			wantMsg: "cannot use null as byte argument",
		},
		{
			name:    "integer as text argument",
			value:   Array(BulkString("GET"), Integer(5)),
			wantMsg: "expected string argument",
		},
		{
			name:    "array as byte argument",
			value:   Array(BulkString("SET"), BulkString("key"), Array(Integer(1))),
			wantMsg: "expected string or bytes argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.value)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var ie *InvalidError
			if !errors.As(err, &ie) {
				t.Fatalf("error = %v, want *InvalidError", err)
			}
			if ie.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", ie.Message, tt.wantMsg)
			}
		})
	}
}

// ============================================================
// ParseCommand Tests - Lossy Text Decoding
// ============================================================

func TestParseCommand_LossyText(t *testing.T) {
	// Invalid UTF-8 in textual arguments is replaced, never rejected.
	got, err := ParseCommand(Array(BulkString("GET"), Bulk([]byte{'a', 0xff, 'b'})))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, ok := got.(Get)
	if !ok {
		t.Fatalf("command = %#v, want Get", got)
	}
	if g.Key != "a�b" {
		t.Errorf("key = %q, want %q", g.Key, "a�b")
	}

	// The same policy applies to the command name.
	got, err = ParseCommand(Array(Bulk([]byte{0xfe, 'x'})))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := got.(Unknown)
	if !ok {
		t.Fatalf("command = %#v, want Unknown", got)
	}
	if !strings.Contains(u.Name, "�") {
		t.Errorf("name = %q, want replacement rune present", u.Name)
	}
}

func TestParseCommand_SetValueKeepsRawBytes(t *testing.T) {
	// SET's value must bypass text decoding entirely.
	raw := []byte{0xff, 0xfe, 0x00, 'x'}
	got, err := ParseCommand(Array(BulkString("SET"), BulkString("key"), Bulk(raw)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := got.(Set)
	if !ok {
		t.Fatalf("command = %#v, want Set", got)
	}
	if !reflect.DeepEqual(s.Value, raw) {
		t.Errorf("value = %v, want %v", s.Value, raw)
	}
}

// ============================================================
// CommandName Tests
// ============================================================

func TestCommandName(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Get{Key: "k"}, "GET"},
		{Set{Key: "k", Value: []byte("v")}, "SET"},
		{Del{Key: "k"}, "DEL"},
		{Exists{Key: "k"}, "EXISTS"},
		{Ping{}, "PING"},
		{Info{}, "INFO"},
		{CommandList{}, "COMMAND"},
		{Quit{}, "QUIT"},
		{Unknown{Name: "FLUSHALL"}, "FLUSHALL"},
	}

	for _, tt := range tests {
		if got := CommandName(tt.cmd); got != tt.want {
			t.Errorf("CommandName(%#v) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

// ============================================================
// Round Trip Tests
// ============================================================

func TestRoundTrip_AllCommands(t *testing.T) {
	tests := []struct {
		name  string
		frame Value
		want  Command
	}{
		{
			name:  "GET",
			frame: Array(BulkString("GET"), BulkString("mykey")),
			want:  Get{Key: "mykey"},
		},
		{
			name:  "SET",
			frame: Array(BulkString("SET"), BulkString("mykey"), Bulk([]byte("payload"))),
			want:  Set{Key: "mykey", Value: []byte("payload")},
		},
		{
			name:  "DEL",
			frame: Array(BulkString("DEL"), BulkString("mykey")),
			want:  Del{Key: "mykey"},
		},
		{
			name:  "EXISTS",
			frame: Array(BulkString("EXISTS"), BulkString("mykey")),
			want:  Exists{Key: "mykey"},
		},
		{
			name:  "PING",
			frame: Array(BulkString("PING")),
			want:  Ping{},
		},
		{
			name:  "PING with message",
			frame: Array(BulkString("PING"), BulkString("hi")),
			want:  Ping{Message: ptr("hi")},
		},
		{
			name:  "INFO",
			frame: Array(BulkString("INFO")),
			want:  Info{},
		},
		{
			name:  "INFO with section",
			frame: Array(BulkString("INFO"), BulkString("memory")),
			want:  Info{Section: ptr("memory")},
		},
		{
			name:  "COMMAND",
			frame: Array(BulkString("COMMAND")),
			want:  CommandList{},
		},
		{
			name:  "QUIT",
			frame: Array(BulkString("QUIT")),
			want:  Quit{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := Encode(tt.frame)

			v, rest, err := Decode(wire)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if len(rest) != 0 {
				t.Fatalf("rest = %q, want empty", rest)
			}

			got, err := ParseCommand(v)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("command = %#v, want %#v", got, tt.want)
			}
		})
	}
}
