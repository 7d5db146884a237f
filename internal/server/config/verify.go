// Package config provides server configuration for Blobnom.
package config

import (
	"fmt"
	"net"
	"os"
	"time"
)

// Verify validates the configuration and prepares required paths. It
// is called once at startup after all sources are merged.
func (c *ServerConfig) Verify() error {
	if err := c.verifyServer(); err != nil {
		return err
	}
	if err := c.verifyAdmin(); err != nil {
		return err
	}
	if err := c.verifyStorage(); err != nil {
		return err
	}
	if err := c.verifyWAL(); err != nil {
		return err
	}
	if err := c.verifySnapshot(); err != nil {
		return err
	}
	return c.verifyLog()
}

func (c *ServerConfig) verifyServer() error {
	srv := &c.Server

	if srv.RESP.Address == "" {
		return fmt.Errorf("server.resp.address is required")
	}
	if _, _, err := net.SplitHostPort(srv.RESP.Address); err != nil {
		return fmt.Errorf("server.resp.address %q: %w", srv.RESP.Address, err)
	}

	if srv.TLS.Address != "" {
		if _, _, err := net.SplitHostPort(srv.TLS.Address); err != nil {
			return fmt.Errorf("server.tls.address %q: %w", srv.TLS.Address, err)
		}
		if srv.TLS.Cert == "" || srv.TLS.Key == "" {
			return fmt.Errorf("server.tls.cert and server.tls.key are required when server.tls.address is set")
		}
		if _, err := os.Stat(srv.TLS.Cert); err != nil {
			return fmt.Errorf("server.tls.cert %q: %w", srv.TLS.Cert, err)
		}
		if _, err := os.Stat(srv.TLS.Key); err != nil {
			return fmt.Errorf("server.tls.key %q: %w", srv.TLS.Key, err)
		}
	}

	if srv.Timeouts.Read < 0 || srv.Timeouts.Write < 0 || srv.Timeouts.Idle < 0 {
		return fmt.Errorf("server.timeouts must not be negative")
	}

	if srv.Limits.Connections < 1 {
		return fmt.Errorf("server.limits.connections must be at least 1")
	}
	if srv.Limits.Rate < 0 {
		return fmt.Errorf("server.limits.rate must not be negative")
	}
	if srv.Limits.Burst < 0 {
		return fmt.Errorf("server.limits.burst must not be negative")
	}
	return nil
}

func (c *ServerConfig) verifyAdmin() error {
	if !c.Admin.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Admin.Address); err != nil {
		return fmt.Errorf("admin.address %q: %w", c.Admin.Address, err)
	}
	return nil
}

func (c *ServerConfig) verifyStorage() error {
	st := &c.Storage

	switch st.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("storage.backend %q is not a known backend (memory, badger)", st.Backend)
	}

	if st.Dir == "" {
		return fmt.Errorf("storage.dir is required")
	}
	if err := os.MkdirAll(st.Dir, 0o750); err != nil {
		return fmt.Errorf("storage.dir %q: %w", st.Dir, err)
	}

	if st.MaxValueSize <= 0 {
		return fmt.Errorf("storage.maxvaluesize must be positive")
	}

	if st.Backend == "badger" {
		b := &st.Badger
		if b.GCInterval != "" {
			if _, err := time.ParseDuration(b.GCInterval); err != nil {
				return fmt.Errorf("storage.badger.gcinterval %q: %w", b.GCInterval, err)
			}
		}
		if b.GCThreshold <= 0 || b.GCThreshold > 1 {
			return fmt.Errorf("storage.badger.gcthreshold must be in (0, 1]")
		}
		if b.CacheSize < 0 {
			return fmt.Errorf("storage.badger.cachesize must not be negative")
		}
		if b.ValueLogSize <= 0 {
			return fmt.Errorf("storage.badger.valuelogsize must be positive")
		}
	}
	return nil
}

func (c *ServerConfig) verifyWAL() error {
	if !c.WAL.Enabled {
		return nil
	}
	if c.WAL.SegmentSize <= 0 {
		return fmt.Errorf("wal.segmentsize must be positive")
	}
	if c.WAL.SyncInterval < 0 {
		return fmt.Errorf("wal.syncinterval must not be negative")
	}
	return nil
}

func (c *ServerConfig) verifySnapshot() error {
	sn := &c.Snapshot

	if sn.Retain < 1 {
		return fmt.Errorf("snapshot.retain must be at least 1")
	}

	switch sn.Algorithm {
	case "", "aes-gcm", "chacha20-poly1305":
	default:
		return fmt.Errorf("snapshot.algorithm %q is not a known cipher (aes-gcm, chacha20-poly1305)", sn.Algorithm)
	}

	if sn.Passphrase != "" && sn.Keyfile != "" {
		return fmt.Errorf("snapshot.passphrase and snapshot.keyfile are mutually exclusive")
	}
	if sn.Algorithm != "" && sn.Passphrase == "" && sn.Keyfile == "" {
		return fmt.Errorf("snapshot.algorithm requires snapshot.passphrase or snapshot.keyfile")
	}
	return nil
}

func (c *ServerConfig) verifyLog() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not a known level (debug, info, warn, error)", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not a known format (json, text, console)", c.Log.Format)
	}
	return nil
}
