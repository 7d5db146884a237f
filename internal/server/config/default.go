// Package config provides server configuration for Blobnom.
package config

import "time"

// Default configuration values.
const (
	DefaultRESPAddress  = "127.0.0.1:6379"
	DefaultAdminAddress = "127.0.0.1:7171"

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute

	DefaultMaxConnections = 1024

	DefaultBackend      = "memory"
	DefaultDataDir      = "/var/lib/blobnom"
	DefaultMaxValueSize = 16 << 20

	DefaultWALSegmentSize  = 64 << 20
	DefaultWALSyncInterval = time.Second

	DefaultSnapshotInterval = time.Hour
	DefaultSnapshotRetain   = 5

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns a ServerConfig populated with default values.
func Default() ServerConfig {
	return ServerConfig{
		Server: ServerSection{
			RESP: RESPConfig{
				Address: DefaultRESPAddress,
			},
			Timeouts: TimeoutConfig{
				Read:  DefaultReadTimeout,
				Write: DefaultWriteTimeout,
				Idle:  DefaultIdleTimeout,
			},
			Limits: LimitConfig{
				Connections: DefaultMaxConnections,
			},
		},
		Admin: AdminSection{
			Enabled: true,
			Address: DefaultAdminAddress,
		},
		Storage: StorageSection{
			Backend:      DefaultBackend,
			Dir:          DefaultDataDir,
			MaxValueSize: DefaultMaxValueSize,
			Badger: BadgerConfig{
				GCInterval:   "10m",
				GCThreshold:  0.5,
				CacheSize:    64 << 20,
				ValueLogSize: 1 << 30,
			},
		},
		WAL: WALSection{
			Enabled:      true,
			SegmentSize:  DefaultWALSegmentSize,
			SyncInterval: DefaultWALSyncInterval,
		},
		Snapshot: SnapshotSection{
			Interval: DefaultSnapshotInterval,
			Retain:   DefaultSnapshotRetain,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
	}
}
