// Package httpserver provides the admin HTTP server for Blobnom.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
)

// Server is the admin HTTP server.
//
// @req RQ-0304
// @design DS-0304
type Server struct {
	httpServer *http.Server
	ln         net.Listener
	logger     logger.Logger
}

// New creates a new admin HTTP server serving the given handler.
func New(addr string, h http.Handler, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: log,
	}
}

// Start binds the listener and serves in the background. The bind is
// synchronous so the caller sees address errors immediately; Addr is
// valid once Start returns.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen %s: %w", s.httpServer.Addr, err)
	}
	s.ln = ln

	s.logger.Info("admin http server listening", "address", ln.Addr().String())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin http server failed", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
