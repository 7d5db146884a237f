// Package redisserver provides the RESP2 cache server for Blobnom.
package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iamd3vil/blobnom/internal/core/domain"
	"github.com/iamd3vil/blobnom/internal/protocol/resp"
	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
	"github.com/iamd3vil/blobnom/internal/telemetry/metric"
)

// Default limits and timeouts.
const (
	DefaultAddress      = "127.0.0.1:6379"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute
	DefaultMaxConns     = 1024

	// DefaultMaxCommandSize fits one maximum-size SET plus framing
	// slack for the key and array header.
	DefaultMaxCommandSize = domain.DefaultMaxValueSize + 64<<10

	readChunkSize = 4 << 10
)

// Config holds the cache server configuration.
type Config struct {
	// Address is the plain TCP listen address.
	Address string
	// UnixPath is the unix socket path. Empty disables the listener.
	UnixPath string
	// TLSAddress is the TLS listen address. Empty disables the listener.
	TLSAddress string
	// TLSConfig is the TLS configuration (required when TLSAddress is set).
	TLSConfig *tls.Config
	// ReadTimeout bounds reading one command once its first byte arrived.
	// Helps prevent slowloris attacks.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing a batch of replies.
	WriteTimeout time.Duration
	// IdleTimeout bounds waiting for the next command on an idle
	// connection.
	IdleTimeout time.Duration
	// MaxConns caps concurrent client connections across all listeners.
	MaxConns int
	// MaxCommandSize caps the bytes buffered while a single command is
	// assembled. Zero means DefaultMaxCommandSize.
	MaxCommandSize int
	// RateLimit is the per-client-IP command budget per second.
	// Zero disables rate limiting.
	RateLimit int
	// RateBurst is the per-client-IP burst allowance. Zero uses RateLimit.
	RateBurst int
	// Backend names the storage backend in the INFO persistence section.
	Backend string
	// OnAcceptFailure is called when an accept loop stops on an
	// unrecoverable listener error, leaving that endpoint dead. Optional;
	// the server process uses it to escalate to a full shutdown.
	OnAcceptFailure func()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:        DefaultAddress,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		MaxConns:       DefaultMaxConns,
		MaxCommandSize: DefaultMaxCommandSize,
		Backend:        "memory",
	}
}

// Server accepts RESP2 connections and executes cache commands.
type Server struct {
	cfg     *Config
	handler *handler
	logger  logger.Logger
	metrics *metric.Registry

	plainLn net.Listener
	tlsLn   net.Listener
	unixLn  net.Listener

	listenAddrs []string

	running atomic.Bool
	wg      sync.WaitGroup

	connCurrent  atomic.Int64
	connTotal    atomic.Uint64
	connRejected atomic.Uint64

	runID     string
	startedAt time.Time
}

// New creates a cache server. cache executes commands; persist may be
// nil when the backend manages its own durability.
func New(cfg *Config, cache Cache, persist Persistence, metrics *metric.Registry, log logger.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = metric.Global()
	}
	if log == nil {
		log = logger.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  log,
		metrics: metrics,
		runID:   ulid.Make().String(),
	}

	var limiters *RateLimiterRegistry
	if cfg.RateLimit > 0 {
		limiters = NewRateLimiterRegistry(cfg.RateLimit, cfg.RateBurst)
	}
	s.handler = newHandler(cache, persist, limiters, s, metrics, log)

	return s
}

// Start binds all configured listeners and begins accepting
// connections. Listener errors after startup are logged and escalated
// through OnAcceptFailure, not returned.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Address == "" {
		return fmt.Errorf("redisserver: listen address is required")
	}

	s.startedAt = time.Now()
	s.running.Store(true)

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("redisserver: listen %s: %w", s.cfg.Address, err)
	}
	s.plainLn = ln
	s.listenAddrs = append(s.listenAddrs, "tcp/"+ln.Addr().String())
	s.logger.Info("cache server listening", "transport", "tcp", "address", ln.Addr().String())

	if s.cfg.TLSAddress != "" {
		if s.cfg.TLSConfig == nil {
			_ = s.plainLn.Close()
			return fmt.Errorf("redisserver: TLS listener requires a TLS configuration")
		}
		tln, err := tls.Listen("tcp", s.cfg.TLSAddress, s.cfg.TLSConfig)
		if err != nil {
			_ = s.plainLn.Close()
			return fmt.Errorf("redisserver: listen tls %s: %w", s.cfg.TLSAddress, err)
		}
		s.tlsLn = tln
		s.listenAddrs = append(s.listenAddrs, "tls/"+tln.Addr().String())
		s.logger.Info("cache server listening", "transport", "tls", "address", tln.Addr().String())
	}

	if s.cfg.UnixPath != "" {
		if err := os.Remove(s.cfg.UnixPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			_ = s.closeListeners()
			return fmt.Errorf("redisserver: remove stale socket %s: %w", s.cfg.UnixPath, err)
		}
		uln, err := net.Listen("unix", s.cfg.UnixPath)
		if err != nil {
			_ = s.closeListeners()
			return fmt.Errorf("redisserver: listen unix %s: %w", s.cfg.UnixPath, err)
		}
		s.unixLn = uln
		s.listenAddrs = append(s.listenAddrs, "unix/"+s.cfg.UnixPath)
		s.logger.Info("cache server listening", "transport", "unix", "address", s.cfg.UnixPath)
	}

	for _, ln := range []net.Listener{s.plainLn, s.tlsLn, s.unixLn} {
		if ln == nil {
			continue
		}
		ln := ln
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.acceptLoop(ctx, ln)
		}()
	}

	return nil
}

// Addr returns the bound address of the plain TCP listener. It is nil
// before Start.
func (s *Server) Addr() net.Addr {
	if s.plainLn == nil {
		return nil
	}
	return s.plainLn.Addr()
}

// TLSAddr returns the bound address of the TLS listener, nil when the
// listener is disabled or the server has not started.
func (s *Server) TLSAddr() net.Addr {
	if s.tlsLn == nil {
		return nil
	}
	return s.tlsLn.Addr()
}

func (s *Server) closeListeners() error {
	var firstErr error
	for _, ln := range []net.Listener{s.plainLn, s.tlsLn, s.unixLn} {
		if ln == nil {
			continue
		}
		if err := ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Shutdown stops accepting connections and waits for in-flight
// connections to finish, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	firstErr := s.closeListeners()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.logger.Error("accept failed", "error", err)
			if s.cfg.OnAcceptFailure != nil {
				s.cfg.OnAcceptFailure()
			}
			return
		}

		if s.cfg.MaxConns > 0 && s.connCurrent.Load() >= int64(s.cfg.MaxConns) {
			s.connRejected.Add(1)
			s.metrics.IncConnRejected("maxconns")
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.refuse(c)
			}()
			continue
		}

		s.connCurrent.Add(1)
		s.connTotal.Add(1)
		s.metrics.IncConnAccepted()
		s.metrics.IncConnActive()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.connCurrent.Add(-1)
				s.metrics.DecConnActive()
				_ = c.Close()
			}()
			s.serveConn(ctx, c)
		}()
	}
}

// refuse sends a final error to a connection rejected at admission and
// closes it.
func (s *Server) refuse(c net.Conn) {
	defer c.Close()
	_ = c.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, _ = c.Write(resp.Encode(resp.ErrorString("ERR max connections reached")))
	s.logger.Warn("connection refused", "remote", c.RemoteAddr().String(), "reason", "maxconns")
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	remote := c.RemoteAddr().String()
	key := clientKey(c.RemoteAddr())
	log := s.logger.With("remote", remote)
	log.Debug("client connected")
	defer log.Debug("client disconnected")

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = DefaultReadTimeout
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = DefaultWriteTimeout
	}
	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = DefaultIdleTimeout
	}
	maxCommand := s.cfg.MaxCommandSize
	if maxCommand == 0 {
		maxCommand = DefaultMaxCommandSize
	}

	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)
	var out []byte

	for {
		// Idle deadline between commands, tighter read deadline once a
		// command started arriving.
		deadline := idleTimeout
		if len(buf) > 0 {
			deadline = readTimeout
		}
		if err := c.SetReadDeadline(time.Now().Add(deadline)); err != nil {
			return
		}

		n, rerr := c.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			out = out[:0]
			closeAfter := false
			for len(buf) > 0 {
				v, rest, err := resp.Decode(buf)
				if errors.Is(err, resp.ErrIncomplete) {
					break
				}
				if err != nil {
					s.metrics.IncProtocolError()
					log.Warn("protocol violation", "error", err)
					out = resp.AppendEncode(out, resp.ErrorString("ERR Invalid protocol: "+invalidMessage(err)))
					closeAfter = true
					break
				}

				reply, quit := s.handler.execute(ctx, key, v)
				out = resp.AppendEncode(out, reply)
				buf = append(buf[:0], rest...)
				if quit {
					closeAfter = true
					break
				}
			}

			if !closeAfter && len(buf) > maxCommand {
				s.metrics.IncProtocolError()
				log.Warn("command too large", "buffered", len(buf), "limit", maxCommand)
				out = resp.AppendEncode(out, resp.ErrorString(
					fmt.Sprintf("ERR Invalid protocol: command exceeds %d bytes", maxCommand)))
				closeAfter = true
			}

			if len(out) > 0 {
				if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
					return
				}
				if _, err := c.Write(out); err != nil {
					log.Debug("write failed", "error", err)
					return
				}
			}
			if closeAfter {
				return
			}
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(rerr, &netErr) && netErr.Timeout() {
				log.Debug("connection timed out")
				return
			}
			log.Debug("read failed", "error", rerr)
			return
		}
	}
}

// invalidMessage extracts the protocol fault description without the
// package prefix, for the wire reply.
func invalidMessage(err error) string {
	var ie *resp.InvalidError
	if errors.As(err, &ie) {
		return ie.Message
	}
	return err.Error()
}

// clientKey reduces a remote address to the rate limiting key: the IP
// for TCP and TLS clients, a fixed key for unix socket peers.
func clientKey(addr net.Addr) string {
	if _, ok := addr.(*net.UnixAddr); ok {
		return "local"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
