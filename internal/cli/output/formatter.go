// Package output renders command results for blobnom-cli.
package output

import (
	"encoding/json"
	"io"
)

// Format selects how command results are rendered.
type Format string

const (
	// FormatPlain prints bare values for scripting.
	FormatPlain Format = "plain"
	// FormatJSON prints indented JSON documents.
	FormatJSON Format = "json"
	// FormatTable prints aligned columns for humans.
	FormatTable Format = "table"
)

// Formatter renders a command result to w.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns the formatter for format, falling back to plain
// for anything unrecognized.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &PlainFormatter{}
	}
}

// JSONFormatter renders one indented JSON document per call.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
