// Package repl provides the interactive mode for blobnom-cli.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/iamd3vil/blobnom/internal/cli/client"
	"github.com/iamd3vil/blobnom/internal/protocol/resp"
)

// maxLineSize bounds a single REPL input line. SET lines carry the
// value inline, so this is generous.
const maxLineSize = 1 << 20

// REPL reads commands line by line and sends each as one cache
// command over an established client.
type REPL struct {
	client    *client.Client
	input     io.Reader
	output    io.Writer
	completer *Completer
	history   *History
	prompt    string
}

// New creates a REPL over the given client and streams.
func New(c *client.Client, input io.Reader, output io.Writer) *REPL {
	return &REPL{
		client:    c,
		input:     input,
		output:    output,
		completer: NewCompleter(),
		history:   NewHistory(),
		prompt:    "blobnom> ",
	}
}

// SetHistoryFile points the history at a custom location.
func (r *REPL) SetHistoryFile(path string) {
	r.history = NewHistoryFile(path)
}

// Run starts the loop. It returns when the input ends, the user
// exits, or the connection fails.
func (r *REPL) Run() error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "history unavailable: %v\n", err)
	}
	defer r.history.Save()

	scanner := bufio.NewScanner(r.input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for {
		fmt.Fprint(r.output, r.prompt)

		if !scanner.Scan() {
			fmt.Fprintln(r.output)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.history.Add(line)

		args, err := SplitArgs(line)
		if err != nil {
			fmt.Fprintf(r.output, "(error) %v\n", err)
			continue
		}

		switch strings.ToLower(args[0]) {
		case "exit", "quit":
			return nil
		case "help":
			r.printHelp(args)
			continue
		}

		v, err := r.client.DoStrings(args...)
		if err != nil {
			return fmt.Errorf("repl: %w", err)
		}
		writeValue(r.output, v)

		// Error replies to unknown commands get a local hint.
		if v.Type == resp.TypeError && strings.Contains(v.Str, "unknown command") {
			if suggestions := r.completer.Complete(strings.ToLower(args[0])); len(suggestions) > 0 {
				fmt.Fprintf(r.output, "did you mean: %s\n", strings.Join(suggestions, ", "))
			}
		}
	}
}

// printHelp lists the known commands, or completions for a prefix.
func (r *REPL) printHelp(args []string) {
	commands := r.completer.Commands()
	if len(args) > 1 {
		if matches := r.completer.Complete(strings.ToLower(args[1])); len(matches) > 0 {
			commands = matches
		}
	}
	fmt.Fprintf(r.output, "commands: %s\n", strings.Join(commands, ", "))
}

// writeValue renders a reply the way redis-cli does.
func writeValue(w io.Writer, v resp.Value) {
	switch v.Type {
	case resp.TypeSimpleString:
		fmt.Fprintln(w, v.Str)
	case resp.TypeError:
		fmt.Fprintf(w, "(error) %s\n", v.Str)
	case resp.TypeInteger:
		fmt.Fprintf(w, "(integer) %d\n", v.Int)
	case resp.TypeBulkString:
		fmt.Fprintf(w, "%q\n", v.Bulk)
	case resp.TypeNullBulk, resp.TypeNullArray:
		fmt.Fprintln(w, "(nil)")
	case resp.TypeArray:
		if len(v.Array) == 0 {
			fmt.Fprintln(w, "(empty array)")
			return
		}
		for i, elem := range v.Array {
			fmt.Fprintf(w, "%d) ", i+1)
			writeValue(w, elem)
		}
	}
}

// SplitArgs splits a command line into arguments. Double quotes honor
// \" \\ \n \r \t escapes; single quotes are literal.
func SplitArgs(line string) ([]string, error) {
	var args []string
	var cur strings.Builder

	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}

		cur.Reset()
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			switch line[i] {
			case '\'':
				i++
				end := strings.IndexByte(line[i:], '\'')
				if end < 0 {
					return nil, fmt.Errorf("unterminated single quote")
				}
				cur.WriteString(line[i : i+end])
				i += end + 1
			case '"':
				i++
				closed := false
				for i < len(line) {
					c := line[i]
					if c == '\\' && i+1 < len(line) {
						i++
						switch line[i] {
						case 'n':
							cur.WriteByte('\n')
						case 'r':
							cur.WriteByte('\r')
						case 't':
							cur.WriteByte('\t')
						case '"', '\\':
							cur.WriteByte(line[i])
						default:
							cur.WriteByte('\\')
							cur.WriteByte(line[i])
						}
						i++
						continue
					}
					if c == '"' {
						i++
						closed = true
						break
					}
					cur.WriteByte(c)
					i++
				}
				if !closed {
					return nil, fmt.Errorf("unterminated double quote")
				}
			default:
				cur.WriteByte(line[i])
				i++
			}
		}
		args = append(args, cur.String())
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return args, nil
}
