// Package repl provides the interactive mode for blobnom-cli.
package repl

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// defaultMaxHistory caps the number of retained commands.
const defaultMaxHistory = 1000

// History manages the REPL command history.
type History struct {
	entries []string
	maxSize int
	file    string
}

// NewHistory creates a history backed by ~/.blobnom/history.
func NewHistory() *History {
	homeDir, _ := os.UserHomeDir()
	return NewHistoryFile(filepath.Join(homeDir, ".blobnom", "history"))
}

// NewHistoryFile creates a history backed by the given file.
func NewHistoryFile(path string) *History {
	return &History{
		maxSize: defaultMaxHistory,
		file:    path,
	}
}

// Add appends a command, skipping blanks and consecutive duplicates.
func (h *History) Add(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}

	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// Len returns the number of stored commands.
func (h *History) Len() int {
	return len(h.entries)
}

// Get returns the command at offset from the end, 0 being the most
// recent. It returns "" when offset is out of range.
func (h *History) Get(offset int) string {
	idx := len(h.entries) - 1 - offset
	if idx < 0 || idx >= len(h.entries) {
		return ""
	}
	return h.entries[idx]
}

// Load reads history from the backing file. A missing file is not an
// error.
func (h *History) Load() error {
	f, err := os.Open(h.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		h.Add(scanner.Text())
	}
	return scanner.Err()
}

// Save writes history to the backing file, creating its directory
// when needed.
func (h *History) Save() error {
	if err := os.MkdirAll(filepath.Dir(h.file), 0o700); err != nil {
		return err
	}

	var sb strings.Builder
	for _, entry := range h.entries {
		sb.WriteString(entry)
		sb.WriteByte('\n')
	}
	return os.WriteFile(h.file, []byte(sb.String()), 0o600)
}
