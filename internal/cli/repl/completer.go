// Package repl provides the interactive mode for blobnom-cli.
package repl

import "strings"

// Completer suggests command names for partial input. The command set
// mirrors what the cache port accepts, plus the REPL builtins.
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over the REPL command set.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"command",
			"del",
			"exists",
			"exit",
			"get",
			"help",
			"info",
			"ping",
			"quit",
			"set",
		},
	}
}

// Commands returns the full command set.
func (c *Completer) Commands() []string {
	return c.commands
}

// Complete returns the commands starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	if prefix == "" {
		return nil
	}

	var matches []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// Known reports whether name is exactly a known command.
func (c *Completer) Known(name string) bool {
	for _, cmd := range c.commands {
		if cmd == name {
			return true
		}
	}
	return false
}
