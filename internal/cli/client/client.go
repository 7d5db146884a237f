// Package client provides the RESP client used by blobnom-cli.
package client

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/iamd3vil/blobnom/internal/cli/connection"
	"github.com/iamd3vil/blobnom/internal/protocol/resp"
)

// DefaultTimeout bounds each command round trip.
const DefaultTimeout = 5 * time.Second

// readChunkSize is the read granularity for replies.
const readChunkSize = 4096

// ServerError is an error reply from the server, verbatim.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Client talks RESP to the Blobnom cache port. It runs commands one at
// a time and is not safe for concurrent use.
type Client struct {
	conn    net.Conn
	timeout time.Duration
	buf     []byte
}

// Connect dials addr (tcp://host:port, tls://host:port, unix:///path,
// or host:port) and returns a ready client. tls:// addresses verify
// against the system roots; ConnectTLS takes a custom config.
func Connect(addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := connection.NewManager(timeout).Dial(addr)
	if err != nil {
		return nil, err
	}
	return New(conn, timeout), nil
}

// ConnectTLS dials a tls:// addr using conf for the handshake.
func ConnectTLS(addr string, timeout time.Duration, conf *tls.Config) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := connection.NewManager(timeout).WithTLS(conf).Dial(addr)
	if err != nil {
		return nil, err
	}
	return New(conn, timeout), nil
}

// New wraps an established connection.
func New(conn net.Conn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{conn: conn, timeout: timeout}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends one command (name plus arguments) and returns the reply.
// Error replies come back as values, not as errors; the typed helpers
// translate them.
func (c *Client) Do(args ...[]byte) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, errors.New("client: empty command")
	}

	elems := make([]resp.Value, len(args))
	for i, arg := range args {
		elems[i] = resp.Bulk(arg)
	}

	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return resp.Value{}, fmt.Errorf("client: set write deadline: %w", err)
	}
	if _, err := c.conn.Write(resp.Encode(resp.Array(elems...))); err != nil {
		return resp.Value{}, fmt.Errorf("client: write: %w", err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return resp.Value{}, fmt.Errorf("client: set read deadline: %w", err)
	}
	return c.readReply()
}

// DoStrings is Do over string arguments, for REPL input.
func (c *Client) DoStrings(args ...string) (resp.Value, error) {
	raw := make([][]byte, len(args))
	for i, arg := range args {
		raw[i] = []byte(arg)
	}
	return c.Do(raw...)
}

// readReply accumulates bytes until one complete value decodes.
// Leftover bytes stay buffered for the next reply.
func (c *Client) readReply() (resp.Value, error) {
	chunk := make([]byte, readChunkSize)
	for {
		if len(c.buf) > 0 {
			v, rest, err := resp.Decode(c.buf)
			switch {
			case err == nil:
				c.buf = append(c.buf[:0], rest...)
				return v, nil
			case !errors.Is(err, resp.ErrIncomplete):
				return resp.Value{}, fmt.Errorf("client: decode reply: %w", err)
			}
		}

		n, err := c.conn.Read(chunk)
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			return resp.Value{}, fmt.Errorf("client: read: %w", err)
		}
	}
}

// Ping checks server liveness. An empty message sends a bare PING;
// otherwise the server echoes the message back.
func (c *Client) Ping(message string) (string, error) {
	var v resp.Value
	var err error
	if message == "" {
		v, err = c.Do([]byte("PING"))
	} else {
		v, err = c.Do([]byte("PING"), []byte(message))
	}
	if err != nil {
		return "", err
	}

	switch v.Type {
	case resp.TypeSimpleString:
		return v.Str, nil
	case resp.TypeBulkString:
		return string(v.Bulk), nil
	case resp.TypeError:
		return "", &ServerError{Message: v.Str}
	default:
		return "", fmt.Errorf("client: unexpected %v reply to PING", v.Type)
	}
}

// Get fetches a value. found is false on a miss.
func (c *Client) Get(key string) (value []byte, found bool, err error) {
	v, err := c.Do([]byte("GET"), []byte(key))
	if err != nil {
		return nil, false, err
	}

	switch v.Type {
	case resp.TypeBulkString:
		return v.Bulk, true, nil
	case resp.TypeNullBulk:
		return nil, false, nil
	case resp.TypeError:
		return nil, false, &ServerError{Message: v.Str}
	default:
		return nil, false, fmt.Errorf("client: unexpected %v reply to GET", v.Type)
	}
}

// Set stores a value under key.
func (c *Client) Set(key string, value []byte) error {
	v, err := c.Do([]byte("SET"), []byte(key), value)
	if err != nil {
		return err
	}

	switch v.Type {
	case resp.TypeSimpleString:
		return nil
	case resp.TypeError:
		return &ServerError{Message: v.Str}
	default:
		return fmt.Errorf("client: unexpected %v reply to SET", v.Type)
	}
}

// Del removes a key, reporting whether it existed.
func (c *Client) Del(key string) (bool, error) {
	return c.keyToBool("DEL", key)
}

// Exists reports whether a key is present.
func (c *Client) Exists(key string) (bool, error) {
	return c.keyToBool("EXISTS", key)
}

func (c *Client) keyToBool(name, key string) (bool, error) {
	v, err := c.Do([]byte(name), []byte(key))
	if err != nil {
		return false, err
	}

	switch v.Type {
	case resp.TypeInteger:
		return v.Int == 1, nil
	case resp.TypeError:
		return false, &ServerError{Message: v.Str}
	default:
		return false, fmt.Errorf("client: unexpected %v reply to %s", v.Type, name)
	}
}

// Info fetches the server information text, optionally a single
// section.
func (c *Client) Info(section string) (string, error) {
	var v resp.Value
	var err error
	if section == "" {
		v, err = c.Do([]byte("INFO"))
	} else {
		v, err = c.Do([]byte("INFO"), []byte(section))
	}
	if err != nil {
		return "", err
	}

	switch v.Type {
	case resp.TypeBulkString:
		return string(v.Bulk), nil
	case resp.TypeError:
		return "", &ServerError{Message: v.Str}
	default:
		return "", fmt.Errorf("client: unexpected %v reply to INFO", v.Type)
	}
}
