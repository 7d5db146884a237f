// Package connection manages client connections for blobnom-cli.
package connection

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/iamd3vil/blobnom/internal/infra/tlsroots"
)

// DefaultDialTimeout bounds connection establishment.
const DefaultDialTimeout = 5 * time.Second

// Manager resolves server addresses and opens cache connections.
type Manager struct {
	timeout time.Duration
	tlsConf *tls.Config
}

// NewManager creates a connection manager. A timeout of zero or less
// selects DefaultDialTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	return &Manager{timeout: timeout}
}

// WithTLS sets the TLS config used for tls:// addresses and returns
// the manager. Without it, tls:// dials verify against the system
// roots.
func (m *Manager) WithTLS(conf *tls.Config) *Manager {
	m.tlsConf = conf
	return m
}

// Timeout returns the configured dial timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Resolve splits a server address into a network and a dial address.
//
// Supported forms:
//   - tcp://host:port
//   - tls://host:port
//   - unix:///path/to.sock
//   - host:port (plain TCP)
func (m *Manager) Resolve(addr string) (network, address string, err error) {
	switch {
	case strings.HasPrefix(addr, "tcp://"):
		network = "tcp"
		address = strings.TrimPrefix(addr, "tcp://")
	case strings.HasPrefix(addr, "tls://"):
		network = "tls"
		address = strings.TrimPrefix(addr, "tls://")
	case strings.HasPrefix(addr, "unix://"):
		network = "unix"
		address = strings.TrimPrefix(addr, "unix://")
	case strings.Contains(addr, "://"):
		scheme, _, _ := strings.Cut(addr, "://")
		return "", "", fmt.Errorf("connection: unsupported scheme %q", scheme)
	default:
		network = "tcp"
		address = addr
	}

	switch network {
	case "tcp", "tls":
		if _, _, err := net.SplitHostPort(address); err != nil {
			return "", "", fmt.Errorf("connection: invalid server address %q: %w", addr, err)
		}
	case "unix":
		if address == "" {
			return "", "", fmt.Errorf("connection: empty unix socket path in %q", addr)
		}
	}

	return network, address, nil
}

// Dial resolves addr and opens a connection within the dial timeout.
func (m *Manager) Dial(addr string) (net.Conn, error) {
	network, address, err := m.Resolve(addr)
	if err != nil {
		return nil, err
	}

	if network == "tls" {
		return m.dialTLS(addr, address)
	}

	conn, err := net.DialTimeout(network, address, m.timeout)
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", addr, err)
	}
	return conn, nil
}

// dialTLS opens a TCP connection and completes the handshake within
// the dial timeout.
func (m *Manager) dialTLS(addr, address string) (net.Conn, error) {
	conf := m.tlsConf
	if conf == nil {
		conf = tlsroots.NewPool().ClientConfig()
	}
	if conf.ServerName == "" {
		conf = conf.Clone()
		conf.ServerName, _, _ = net.SplitHostPort(address)
	}

	raw, err := net.DialTimeout("tcp", address, m.timeout)
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", addr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	conn := tls.Client(raw, conf)
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("connection: tls handshake with %s: %w", addr, err)
	}
	return conn, nil
}

// ClientTLS builds the TLS config for tls:// cache addresses and
// https:// admin endpoints. caFile, when set, extends the system roots;
// insecure skips certificate verification entirely.
func ClientTLS(caFile string, insecure bool) (*tls.Config, error) {
	pool := tlsroots.NewPool()
	if caFile != "" {
		if err := pool.AddCertFile(caFile); err != nil {
			return nil, err
		}
	}
	conf := pool.ClientConfig()
	conf.InsecureSkipVerify = insecure
	return conf, nil
}
