package resp

import (
	"errors"
	"fmt"
)

// ErrIncomplete reports that the buffer holds only a prefix of a frame.
// It is part of normal streaming operation, not a fault: the caller
// buffers more bytes and calls Decode again with the grown input.
var ErrIncomplete = errors.New("resp: incomplete frame")

// InvalidError reports a malformed frame or command shape. Once Decode
// returns it the framing is desynchronized and the connection must be
// closed; from ParseCommand it marks a fault in a single well-framed
// command and the connection may continue.
type InvalidError struct {
	Message string
}

func (e *InvalidError) Error() string {
	return "resp: invalid protocol: " + e.Message
}

func invalidf(format string, args ...any) *InvalidError {
	return &InvalidError{Message: fmt.Sprintf(format, args...)}
}

// IsInvalid reports whether err (or anything it wraps) is an InvalidError.
func IsInvalid(err error) bool {
	var ie *InvalidError
	return errors.As(err, &ie)
}
