package output

import (
	"fmt"
	"io"
)

// PlainFormatter writes data as unadorned text, one value or one
// "key: value" pair per line. It is the default for scripting use.
type PlainFormatter struct{}

// Format writes strings and byte slices verbatim with a trailing
// newline. Maps and structs render as sorted "key: value" lines;
// anything else falls back to %v.
func (f *PlainFormatter) Format(w io.Writer, data any) error {
	switch d := data.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, d)
		return err
	case []byte:
		if _, err := w.Write(d); err != nil {
			return err
		}
		_, err := w.Write([]byte{'\n'})
		return err
	}

	table, err := toTable(data)
	if err != nil || len(table.Headers) != 2 {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	for _, row := range table.Rows {
		if _, err := fmt.Fprintf(w, "%s: %s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return nil
}
