package repl

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/iamd3vil/blobnom/internal/cli/client"
	"github.com/iamd3vil/blobnom/internal/protocol/resp"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{
			name: "plain words",
			line: "set key value",
			want: []string{"set", "key", "value"},
		},
		{
			name: "extra whitespace",
			line: "  get \t key  ",
			want: []string{"get", "key"},
		},
		{
			name: "double quotes with spaces",
			line: `set key "hello world"`,
			want: []string{"set", "key", "hello world"},
		},
		{
			name: "double quote escapes",
			line: `set key "a\r\nb\"c\\d"`,
			want: []string{"set", "key", "a\r\nb\"c\\d"},
		},
		{
			name: "single quotes literal",
			line: `set key 'a\nb'`,
			want: []string{"set", "key", `a\nb`},
		},
		{
			name: "adjacent quoted parts",
			line: `set key ab"cd"ef`,
			want: []string{"set", "key", "abcdef"},
		},
		{
			name: "empty quoted argument",
			line: `set key ""`,
			want: []string{"set", "key", ""},
		},
		{
			name:    "unterminated double quote",
			line:    `set key "oops`,
			wantErr: true,
		},
		{
			name:    "unterminated single quote",
			line:    `set key 'oops`,
			wantErr: true,
		},
		{
			name:    "blank line",
			line:    "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SplitArgs(%q) err = nil, want error", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitArgs(%q) err = %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArgs(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestHistoryAdd(t *testing.T) {
	h := NewHistoryFile(filepath.Join(t.TempDir(), "history"))

	h.Add("get a")
	h.Add("get a")
	h.Add("  ")
	h.Add("get b")

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	if got := h.Get(0); got != "get b" {
		t.Errorf("Get(0) = %q, want %q", got, "get b")
	}
	if got := h.Get(1); got != "get a" {
		t.Errorf("Get(1) = %q, want %q", got, "get a")
	}
	if got := h.Get(2); got != "" {
		t.Errorf("Get(2) = %q, want empty", got)
	}
}

func TestHistoryTrim(t *testing.T) {
	h := NewHistoryFile(filepath.Join(t.TempDir(), "history"))
	h.maxSize = 3

	for i := 0; i < 5; i++ {
		h.Add(fmt.Sprintf("get key%d", i))
	}

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	if got := h.Get(2); got != "get key2" {
		t.Errorf("oldest = %q, want %q", got, "get key2")
	}
}

func TestHistorySaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistoryFile(path)
	h.Add("ping")
	h.Add("get a")
	if err := h.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := NewHistoryFile(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len() after load = %d, want 2", loaded.Len())
	}
	if got := loaded.Get(0); got != "get a" {
		t.Errorf("Get(0) = %q, want %q", got, "get a")
	}
}

func TestHistoryLoadMissing(t *testing.T) {
	h := NewHistoryFile(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil {
		t.Errorf("Load on missing file err = %v, want nil", err)
	}
}

func TestCompleter(t *testing.T) {
	c := NewCompleter()

	if got := c.Complete("ex"); !reflect.DeepEqual(got, []string{"exists", "exit"}) {
		t.Errorf("Complete(ex) = %q", got)
	}
	if got := c.Complete("zz"); got != nil {
		t.Errorf("Complete(zz) = %q, want nil", got)
	}
	if got := c.Complete(""); got != nil {
		t.Errorf("Complete(\"\") = %q, want nil", got)
	}
	if !c.Known("get") {
		t.Error("Known(get) = false")
	}
	if c.Known("getx") {
		t.Error("Known(getx) = true")
	}
}

// startCacheStub runs a RESP server with canned command handling and
// returns a connected client.
func startCacheStub(t *testing.T) *client.Client {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	store := map[string][]byte{}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var buf []byte
		chunk := make([]byte, 4096)
		for {
			n, err := conn.Read(chunk)
			if n > 0 {
				buf = append(buf, chunk[:n]...)
			}
			if err != nil {
				return
			}

			for len(buf) > 0 {
				v, rest, derr := resp.Decode(buf)
				if errors.Is(derr, resp.ErrIncomplete) {
					break
				}
				if derr != nil {
					return
				}
				buf = append(buf[:0], rest...)

				name := strings.ToUpper(string(v.Array[0].Bulk))
				var reply resp.Value
				switch name {
				case "PING":
					reply = resp.SimpleString("PONG")
				case "SET":
					store[string(v.Array[1].Bulk)] = v.Array[2].Bulk
					reply = resp.SimpleString("OK")
				case "GET":
					if val, ok := store[string(v.Array[1].Bulk)]; ok {
						reply = resp.Bulk(val)
					} else {
						reply = resp.NullBulk()
					}
				case "DEL":
					if _, ok := store[string(v.Array[1].Bulk)]; ok {
						delete(store, string(v.Array[1].Bulk))
						reply = resp.Integer(1)
					} else {
						reply = resp.Integer(0)
					}
				default:
					reply = resp.ErrorString(fmt.Sprintf("ERR unknown command '%s'", name))
				}
				if _, err := conn.Write(resp.Encode(reply)); err != nil {
					return
				}
			}
		}
	}()

	c, err := client.Connect(ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func runSession(t *testing.T, script string) string {
	t.Helper()

	c := startCacheStub(t)
	var out bytes.Buffer
	r := New(c, strings.NewReader(script), &out)
	r.SetHistoryFile(filepath.Join(t.TempDir(), "history"))

	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestREPLSession(t *testing.T) {
	out := runSession(t, "ping\nset greeting \"hello world\"\nget greeting\nget missing\ndel greeting\nexit\n")

	for _, want := range []string{
		"blobnom> ",
		"PONG\n",
		"OK\n",
		"\"hello world\"\n",
		"(nil)\n",
		"(integer) 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("session output missing %q:\n%s", want, out)
		}
	}
}

func TestREPLUnknownCommandSuggests(t *testing.T) {
	out := runSession(t, "ex\nexit\n")

	if !strings.Contains(out, "(error) ERR unknown command 'EX'") {
		t.Errorf("missing server error:\n%s", out)
	}
	if !strings.Contains(out, "did you mean: exists, exit") {
		t.Errorf("missing suggestion:\n%s", out)
	}
}

func TestREPLHelp(t *testing.T) {
	out := runSession(t, "help\nhelp ge\nexit\n")

	if !strings.Contains(out, "commands: command, del, exists, exit, get, help, info, ping, quit, set") {
		t.Errorf("missing command list:\n%s", out)
	}
	if !strings.Contains(out, "commands: get\n") {
		t.Errorf("missing prefix help:\n%s", out)
	}
}

func TestREPLBadQuoteKeepsRunning(t *testing.T) {
	out := runSession(t, "set key \"oops\nping\nexit\n")

	if !strings.Contains(out, "(error) unterminated double quote") {
		t.Errorf("missing parse error:\n%s", out)
	}
	if !strings.Contains(out, "PONG") {
		t.Errorf("loop did not continue after parse error:\n%s", out)
	}
}

func TestREPLEOF(t *testing.T) {
	out := runSession(t, "ping\n")
	if !strings.Contains(out, "PONG") {
		t.Errorf("output = %q", out)
	}
}

func TestWriteValueArray(t *testing.T) {
	var buf bytes.Buffer
	writeValue(&buf, resp.Array(resp.Bulk([]byte("GET")), resp.Integer(2)))

	want := "1) \"GET\"\n2) (integer) 2\n"
	if buf.String() != want {
		t.Errorf("writeValue(array) = %q, want %q", buf.String(), want)
	}
}
