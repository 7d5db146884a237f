// Package resp implements the RESP2 wire protocol core for Blobnom.
package resp

import "strings"

// Command is one parsed client command. The set of implementations is
// closed; handlers switch over the concrete types and use CommandName
// for the wire name.
type Command interface {
	isCommand()
}

// Get reads the blob stored under Key.
type Get struct {
	Key string
}

// Set stores Value under Key. Value is an opaque byte sequence taken
// from the wire unchanged.
type Set struct {
	Key   string
	Value []byte
}

// Del removes the blob stored under Key.
type Del struct {
	Key string
}

// Exists reports whether a blob is stored under Key.
type Exists struct {
	Key string
}

// Ping is the liveness probe. Message is nil when the client sent a
// bare PING.
type Ping struct {
	Message *string
}

// Info requests server statistics. Section is nil when no section
// filter was given.
type Info struct {
	Section *string
}

// CommandList is the COMMAND introspection command.
type CommandList struct{}

// Quit asks the server to close the connection after replying.
type Quit struct{}

// Unknown is a well-shaped command whose name is not in the dispatch
// table. It is not an error at this layer: the handler owns the full
// command surface and decides the reply.
type Unknown struct {
	Name string
}

func (Get) isCommand()         {}
func (Set) isCommand()         {}
func (Del) isCommand()         {}
func (Exists) isCommand()      {}
func (Ping) isCommand()        {}
func (Info) isCommand()        {}
func (CommandList) isCommand() {}
func (Quit) isCommand()        {}
func (Unknown) isCommand()     {}

// CommandName returns the upper-cased wire name of c.
func CommandName(c Command) string {
	switch c := c.(type) {
	case Get:
		return "GET"
	case Set:
		return "SET"
	case Del:
		return "DEL"
	case Exists:
		return "EXISTS"
	case Ping:
		return "PING"
	case Info:
		return "INFO"
	case CommandList:
		return "COMMAND"
	case Quit:
		return "QUIT"
	case Unknown:
		return c.Name
	default:
		return ""
	}
}

// ParseCommand interprets one decoded value as a client command.
//
// Only a non-empty array can form a command. The first element is the
// command name: it must be string-like, is decoded as lossy UTF-8 and
// upper-cased, and selects the dispatch arm. Recognized names are
// checked for exact arity; unrecognized names parse to Unknown. All
// faults are *InvalidError.
func ParseCommand(v Value) (Command, error) {
	if v.Type != TypeArray {
		return nil, invalidf("commands must be arrays")
	}
	elems := v.Array
	if len(elems) == 0 {
		return nil, invalidf("empty command array")
	}

	name, err := commandName(elems[0])
	if err != nil {
		return nil, err
	}

	switch name {
	case "GET":
		if len(elems) != 2 {
			return nil, invalidf("GET requires exactly 1 argument")
		}
		key, err := extractText(elems[1])
		if err != nil {
			return nil, err
		}
		return Get{Key: key}, nil

	case "SET":
		if len(elems) != 3 {
			return nil, invalidf("SET requires exactly 2 arguments")
		}
		key, err := extractText(elems[1])
		if err != nil {
			return nil, err
		}
		value, err := extractBytes(elems[2])
		if err != nil {
			return nil, err
		}
		return Set{Key: key, Value: value}, nil

	case "DEL":
		if len(elems) != 2 {
			return nil, invalidf("DEL requires exactly 1 argument")
		}
		key, err := extractText(elems[1])
		if err != nil {
			return nil, err
		}
		return Del{Key: key}, nil

	case "EXISTS":
		if len(elems) != 2 {
			return nil, invalidf("EXISTS requires exactly 1 argument")
		}
		key, err := extractText(elems[1])
		if err != nil {
			return nil, err
		}
		return Exists{Key: key}, nil

	case "PING":
		if len(elems) > 2 {
			return nil, invalidf("PING accepts at most 1 argument")
		}
		var message *string
		if len(elems) == 2 {
			text, err := extractText(elems[1])
			if err != nil {
				return nil, err
			}
			message = &text
		}
		return Ping{Message: message}, nil

	case "INFO":
		if len(elems) > 2 {
			return nil, invalidf("INFO accepts at most 1 argument")
		}
		var section *string
		if len(elems) == 2 {
			text, err := extractText(elems[1])
			if err != nil {
				return nil, err
			}
			section = &text
		}
		return Info{Section: section}, nil

	case "COMMAND":
		if len(elems) != 1 {
			return nil, invalidf("COMMAND takes no arguments")
		}
		return CommandList{}, nil

	case "QUIT":
		if len(elems) != 1 {
			return nil, invalidf("QUIT takes no arguments")
		}
		return Quit{}, nil

	default:
		return Unknown{Name: name}, nil
	}
}

// commandName extracts and normalizes the command name from the first
// array element.
func commandName(v Value) (string, error) {
	switch v.Type {
	case TypeSimpleString:
		return strings.ToUpper(lossyText(v.Str)), nil
	case TypeBulkString:
		return strings.ToUpper(lossyText(string(v.Bulk))), nil
	default:
		return "", invalidf("command name must be a string")
	}
}

// extractText yields the text of a string-like element. Invalid UTF-8
// never fails extraction; see lossyText.
func extractText(v Value) (string, error) {
	switch v.Type {
	case TypeSimpleString:
		return lossyText(v.Str), nil
	case TypeBulkString:
		return lossyText(string(v.Bulk)), nil
	case TypeNullBulk, TypeNullArray:
		return "", invalidf("cannot use null as string argument")
	default:
		return "", invalidf("expected string argument")
	}
}

// extractBytes yields the raw bytes of a string-like element, with no
// text decoding or validation applied.
func extractBytes(v Value) ([]byte, error) {
	switch v.Type {
	case TypeSimpleString:
		return []byte(v.Str), nil
	case TypeBulkString:
		return v.Bulk, nil
	case TypeNullBulk, TypeNullArray:
		return nil, invalidf("cannot use null as byte argument")
	default:
		return nil, invalidf("expected string or bytes argument")
	}
}

// lossyText replaces runs of invalid UTF-8 with a single U+FFFD so
// textual arguments never fail on encoding, only on arity or type.
func lossyText(s string) string {
	return strings.ToValidUTF8(s, "�")
}
