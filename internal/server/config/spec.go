// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for blobnom-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" json:"server"`
	Admin    AdminSection    `koanf:"admin" json:"admin"`
	Storage  StorageSection  `koanf:"storage" json:"storage"`
	WAL      WALSection      `koanf:"wal" json:"wal"`
	Snapshot SnapshotSection `koanf:"snapshot" json:"snapshot"`
	Log      LogSection      `koanf:"log" json:"log"`
	Metrics  MetricsSection  `koanf:"metrics" json:"metrics"`
}

// ServerSection configures the cache protocol listeners.
type ServerSection struct {
	RESP     RESPConfig    `koanf:"resp" json:"resp"`
	Unix     UnixConfig    `koanf:"unix" json:"unix"`
	TLS      TLSConfig     `koanf:"tls" json:"tls"`
	Timeouts TimeoutConfig `koanf:"timeouts" json:"timeouts"`
	Limits   LimitConfig   `koanf:"limits" json:"limits"`
}

// RESPConfig configures the plain TCP listener.
type RESPConfig struct {
	Address string `koanf:"address" json:"address"`
}

// UnixConfig configures the unix domain socket listener. An empty path
// disables it.
type UnixConfig struct {
	Path string `koanf:"path" json:"path"`
}

// TLSConfig configures the TLS listener. An empty address disables it.
type TLSConfig struct {
	Address string `koanf:"address" json:"address"`
	Cert    string `koanf:"cert" json:"cert"`
	Key     string `koanf:"key" json:"key"`
}

// TimeoutConfig configures per-connection deadlines. Zero disables the
// corresponding deadline.
type TimeoutConfig struct {
	Read  time.Duration `koanf:"read" json:"read"`
	Write time.Duration `koanf:"write" json:"write"`
	Idle  time.Duration `koanf:"idle" json:"idle"`
}

// LimitConfig configures connection admission.
type LimitConfig struct {
	// Connections caps concurrent client connections across listeners.
	Connections int `koanf:"connections" json:"connections"`

	// Rate is the per-client-IP command rate limit per second.
	// Zero disables rate limiting.
	Rate int `koanf:"rate" json:"rate"`

	// Burst is the per-client-IP burst allowance. Zero uses Rate.
	Burst int `koanf:"burst" json:"burst"`
}

// AdminSection configures the admin HTTP server.
type AdminSection struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Address string `koanf:"address" json:"address"`
}

// StorageSection configures the storage backend.
type StorageSection struct {
	// Backend selects the storage backend: "memory" or "badger".
	Backend string `koanf:"backend" json:"backend"`

	// Dir is the base directory for all storage files.
	Dir string `koanf:"dir" json:"dir"`

	// MaxValueSize caps a single value in bytes.
	MaxValueSize int64 `koanf:"maxvaluesize" json:"maxvaluesize"`

	Badger BadgerConfig `koanf:"badger" json:"badger"`
}

// BadgerConfig tunes the Badger backend. Ignored for "memory".
type BadgerConfig struct {
	GCInterval   string  `koanf:"gcinterval" json:"gcinterval"`
	GCThreshold  float64 `koanf:"gcthreshold" json:"gcthreshold"`
	CacheSize    int64   `koanf:"cachesize" json:"cachesize"`
	ValueLogSize int64   `koanf:"valuelogsize" json:"valuelogsize"`
	SyncWrites   bool    `koanf:"syncwrites" json:"syncwrites"`
}

// WALSection configures the write-ahead log used by the memory backend.
type WALSection struct {
	Enabled      bool          `koanf:"enabled" json:"enabled"`
	SegmentSize  int64         `koanf:"segmentsize" json:"segmentsize"`
	SyncInterval time.Duration `koanf:"syncinterval" json:"syncinterval"`
}

// SnapshotSection configures snapshot persistence for the memory
// backend.
type SnapshotSection struct {
	// Interval between automatic snapshots. Zero or negative disables
	// them; explicit snapshots remain available.
	Interval time.Duration `koanf:"interval" json:"interval"`

	// Dir overrides the snapshot directory. Empty means
	// <storage.dir>/snapshots.
	Dir string `koanf:"dir" json:"dir"`

	// Retain is how many snapshots to keep on disk.
	Retain int `koanf:"retain" json:"retain"`

	// Passphrase derives the encryption key. Mutually exclusive with
	// Keyfile.
	Passphrase string `koanf:"passphrase" json:"passphrase"`

	// Keyfile is the path of a hex-encoded 32 byte master key file.
	Keyfile string `koanf:"keyfile" json:"keyfile"`

	// Algorithm selects the snapshot cipher: "aes-gcm" or
	// "chacha20-poly1305". Empty picks one by CPU capability.
	Algorithm string `koanf:"algorithm" json:"algorithm"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
}

// MetricsSection configures Prometheus metrics exposure.
type MetricsSection struct {
	Enabled bool `koanf:"enabled" json:"enabled"`
}
