// Package main provides the entry point for blobnom-server.
//
// blobnom-server is the core service process for Blobnom,
// a binary-safe blob cache speaking the Redis-compatible
// RESP2 wire protocol.
//
// @design DS-0501
package main

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iamd3vil/blobnom/internal/core/service"
	"github.com/iamd3vil/blobnom/internal/infra/buildinfo"
	"github.com/iamd3vil/blobnom/internal/infra/confloader"
	"github.com/iamd3vil/blobnom/internal/infra/shutdown"
	"github.com/iamd3vil/blobnom/internal/infra/tlsroots"
	"github.com/iamd3vil/blobnom/internal/server/config"
	"github.com/iamd3vil/blobnom/internal/server/httpserver"
	"github.com/iamd3vil/blobnom/internal/server/redisserver"
	"github.com/iamd3vil/blobnom/internal/storage"
	"github.com/iamd3vil/blobnom/internal/storage/memory"
	"github.com/iamd3vil/blobnom/internal/storage/snapshot"
	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
	"github.com/iamd3vil/blobnom/internal/telemetry/metric"
	"github.com/iamd3vil/blobnom/pkg/crypto/adaptive"
	"github.com/iamd3vil/blobnom/pkg/keyfile"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		logLevel    = flag.String("log-level", "", "Override the configured log level")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("blobnom-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile, *logLevel)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	build := buildinfo.Get()
	log.Info("starting blobnom-server",
		"version", build.Version,
		"commit", build.Commit,
		"config", *configFile)

	metrics := metric.Global()

	engine, err := initStorage(cfg, metrics, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	ctx := context.Background()
	if err := engine.Recover(ctx); err != nil {
		return fmt.Errorf("storage recovery: %w", err)
	}
	metrics.RegisterCacheCollector(engine.MetricStats)

	cacheSvc := service.NewCacheService(engine)

	shutdownHandler := shutdown.NewHandler(shutdownTimeout)

	// Hooks run in reverse registration order, so the engine
	// registered here closes last, after the listeners drained.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing storage engine")
		return engine.Close()
	})

	rcfg, certWatcher, err := cacheServerConfig(cfg)
	if err != nil {
		return fmt.Errorf("configure cache server: %w", err)
	}
	if certWatcher != nil {
		certWatcher.StartAsync()
		shutdownHandler.OnShutdown(func(context.Context) error {
			certWatcher.Stop()
			return nil
		})
	}

	// A dead listener leaves the process unreachable; shut down so the
	// supervisor restarts it.
	rcfg.OnAcceptFailure = shutdownHandler.Trigger

	cacheServer := redisserver.New(rcfg, cacheSvc, engine, metrics, log)
	if err := cacheServer.Start(ctx); err != nil {
		return fmt.Errorf("start cache server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down cache server")
		return cacheServer.Shutdown(ctx)
	})

	if cfg.Admin.Enabled {
		routerCfg := httpserver.DefaultRouterConfig()
		routerCfg.Cache = cacheSvc
		routerCfg.Store = engine
		routerCfg.Config = &cfg
		routerCfg.Metrics = metrics
		routerCfg.ExposeMetrics = cfg.Metrics.Enabled
		routerCfg.Logger = log

		adminServer := httpserver.New(cfg.Admin.Address, httpserver.NewRouter(routerCfg), log)
		if err := adminServer.Start(); err != nil {
			return fmt.Errorf("start admin server: %w", err)
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down admin server")
			return adminServer.Shutdown(ctx)
		})
	}

	if *configFile != "" {
		confWatcher, err := watchConfig(*configFile, *logLevel, log)
		if err != nil {
			log.Warn("config watch unavailable", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return confWatcher.Stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from defaults, file, and environment,
// applies the command line log level override, and validates the
// result.
func loadConfig(configFile, levelOverride string) (config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(&cfg); err != nil {
		return cfg, err
	}

	if levelOverride != "" {
		cfg.Log.Level = levelOverride
	}

	if err := cfg.Verify(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger builds the structured logger and installs it as the
// process default.
func initLogger(cfg config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initStorage builds the configured backend and wraps it in the
// storage engine.
func initStorage(cfg config.ServerConfig, metrics *metric.Registry, log logger.Logger) (*storage.Engine, error) {
	scfg := storage.DefaultConfig(cfg.Storage.Dir)
	scfg.Logger = log
	scfg.Metrics = metrics
	if cfg.Storage.MaxValueSize > 0 {
		scfg.MaxValueSize = cfg.Storage.MaxValueSize
	}
	if cfg.Snapshot.Interval > 0 {
		scfg.SnapshotInterval = cfg.Snapshot.Interval
	} else {
		scfg.SnapshotInterval = -1
	}
	if cfg.Snapshot.Dir != "" {
		scfg.Snapshot.Dir = cfg.Snapshot.Dir
	}
	if cfg.Snapshot.Retain > 0 {
		scfg.Snapshot.RetentionCount = cfg.Snapshot.Retain
	}
	if cfg.WAL.SegmentSize > 0 {
		scfg.WAL.SegmentSize = cfg.WAL.SegmentSize
	}
	if cfg.WAL.SyncInterval > 0 {
		scfg.WAL.SyncInterval = cfg.WAL.SyncInterval
	}

	backend, err := initBackend(cfg, metrics, log)
	if err != nil {
		return nil, err
	}

	cipher, err := snapshotCipher(cfg, scfg.Snapshot.Dir, log)
	if err != nil {
		return nil, err
	}
	scfg.Cipher = cipher

	return storage.NewEngine(scfg, backend)
}

// initBackend builds the backend named by storage.backend. The memory
// backend runs without WAL or snapshots when the WAL is disabled.
func initBackend(cfg config.ServerConfig, metrics *metric.Registry, log logger.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "badger":
		bcfg := storage.DefaultBadgerConfig()
		badger := cfg.Storage.Badger
		if badger.GCInterval != "" {
			bcfg.GCInterval = badger.GCInterval
		}
		if badger.GCThreshold > 0 {
			bcfg.GCThreshold = badger.GCThreshold
		}
		if badger.CacheSize > 0 {
			bcfg.CacheSize = badger.CacheSize
		}
		if badger.ValueLogSize > 0 {
			bcfg.ValueLogFileSize = badger.ValueLogSize
		}
		bcfg.SyncWrites = badger.SyncWrites

		backend, err := storage.NewBadgerBackend(filepath.Join(cfg.Storage.Dir, "badger"), bcfg, log)
		if err != nil {
			return nil, err
		}
		return backend.RegisterMetrics(metrics.Registerer()), nil
	default:
		backend := memory.New()
		if !cfg.WAL.Enabled {
			log.Info("WAL disabled, cache contents will not survive a restart")
			return storage.WithoutSnapshots(backend), nil
		}
		return backend, nil
	}
}

// snapshotCipher builds the snapshot cipher from the configured key
// material. Passphrase-derived keys need a stable salt, kept in a file
// next to the snapshots.
func snapshotCipher(cfg config.ServerConfig, snapshotDir string, log logger.Logger) (adaptive.Cipher, error) {
	enc := snapshot.EncryptionConfig{Algorithm: cfg.Snapshot.Algorithm}
	saltPath := filepath.Join(snapshotDir, "salt")

	switch {
	case cfg.Snapshot.Keyfile != "":
		key, created, err := keyfile.LoadOrCreate(cfg.Snapshot.Keyfile)
		if err != nil {
			return nil, fmt.Errorf("snapshot key file: %w", err)
		}
		if created {
			log.Info("generated snapshot key file",
				"path", cfg.Snapshot.Keyfile,
				"fingerprint", keyfile.Fingerprint(key))
		} else {
			log.Info("loaded snapshot key file",
				"path", cfg.Snapshot.Keyfile,
				"fingerprint", keyfile.Fingerprint(key))
		}
		enc.Key = key
	case cfg.Snapshot.Passphrase != "":
		enc.Passphrase = []byte(cfg.Snapshot.Passphrase)
		salt, err := loadSnapshotSalt(saltPath)
		if err != nil {
			return nil, err
		}
		enc.Salt = salt
	default:
		return nil, nil
	}

	cipher, salt, err := snapshot.NewCipherFromConfig(enc)
	if err != nil {
		return nil, err
	}
	if len(enc.Salt) == 0 && len(salt) > 0 {
		if err := saveSnapshotSalt(saltPath, salt); err != nil {
			return nil, err
		}
		log.Info("stored snapshot key derivation salt", "path", saltPath)
	}
	return cipher, nil
}

// loadSnapshotSalt reads a hex-encoded salt, or nil when the file does
// not exist yet.
func loadSnapshotSalt(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read salt file: %w", err)
	}
	salt, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("salt file %s is not valid hex: %w", path, err)
	}
	return salt, nil
}

func saveSnapshotSalt(path string, salt []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(salt)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write salt file: %w", err)
	}
	return nil
}

// cacheServerConfig maps the server section onto the cache server
// configuration. The returned watcher, when non-nil, hot-reloads the
// TLS certificate pair; the caller starts and stops it.
func cacheServerConfig(cfg config.ServerConfig) (*redisserver.Config, *tlsroots.Watcher, error) {
	rcfg := redisserver.DefaultConfig()
	rcfg.Address = cfg.Server.RESP.Address
	rcfg.UnixPath = cfg.Server.Unix.Path
	if cfg.Server.Timeouts.Read > 0 {
		rcfg.ReadTimeout = cfg.Server.Timeouts.Read
	}
	if cfg.Server.Timeouts.Write > 0 {
		rcfg.WriteTimeout = cfg.Server.Timeouts.Write
	}
	if cfg.Server.Timeouts.Idle > 0 {
		rcfg.IdleTimeout = cfg.Server.Timeouts.Idle
	}
	if cfg.Server.Limits.Connections > 0 {
		rcfg.MaxConns = cfg.Server.Limits.Connections
	}
	rcfg.RateLimit = cfg.Server.Limits.Rate
	rcfg.RateBurst = cfg.Server.Limits.Burst
	if cfg.Storage.MaxValueSize > 0 {
		rcfg.MaxCommandSize = int(cfg.Storage.MaxValueSize) + 64<<10
	}
	rcfg.Backend = cfg.Storage.Backend

	if cfg.Server.TLS.Address == "" {
		return rcfg, nil, nil
	}

	certWatcher, err := tlsroots.NewWatcher(cfg.Server.TLS.Cert, cfg.Server.TLS.Key,
		tlsroots.WithLogger(logger.Slog()))
	if err != nil {
		return nil, nil, fmt.Errorf("load TLS certificate: %w", err)
	}

	rcfg.TLSAddress = cfg.Server.TLS.Address
	rcfg.TLSConfig = &tls.Config{
		GetCertificate: certWatcher.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	return rcfg, certWatcher, nil
}

// watchConfig reloads the configuration when the file changes. Only
// the log level applies in place; other changes log a restart notice.
// The level stays pinned while a command line override is active.
func watchConfig(path, levelOverride string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog()))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		fresh := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(changed)).Load(&fresh); err != nil {
			log.Warn("config reload failed", "path", changed, "error", err)
			return
		}
		if err := fresh.Verify(); err != nil {
			log.Warn("config reload rejected", "path", changed, "error", err)
			return
		}
		if levelOverride == "" && fresh.Log.Level != logger.GetLevel() {
			logger.SetLevel(fresh.Log.Level)
			log.Info("log level updated", "level", fresh.Log.Level)
		}
		log.Info("config file reloaded, other changes take effect on restart", "path", changed)
	})

	watcher.StartAsync()
	return watcher, nil
}
