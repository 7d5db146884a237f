// Package tests provides integration tests for Blobnom.
//
// The integration test starts a full server stack locally and
// verifies:
//   - RESP commands over a real TCP connection
//   - Admin HTTP stats and snapshot triggering
//   - Durability across an engine restart (snapshot plus WAL replay)
//
// @design DS-0401
// @req RQ-0401
package tests

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/iamd3vil/blobnom/internal/cli/client"
	"github.com/iamd3vil/blobnom/internal/cli/connection"
	"github.com/iamd3vil/blobnom/internal/core/service"
	"github.com/iamd3vil/blobnom/internal/server/config"
	"github.com/iamd3vil/blobnom/internal/server/httpserver"
	"github.com/iamd3vil/blobnom/internal/server/redisserver"
	"github.com/iamd3vil/blobnom/internal/storage"
	"github.com/iamd3vil/blobnom/internal/storage/memory"
	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
	"github.com/iamd3vil/blobnom/internal/telemetry/metric"
)

// stack bundles the pieces of a running server for one test.
type stack struct {
	engine      *storage.Engine
	cacheServer *redisserver.Server
	adminServer *httpserver.Server
}

func quietLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// startStack brings up an engine on dataDir plus RESP and admin
// listeners on loopback ports.
func startStack(t *testing.T, ctx context.Context, dataDir string) *stack {
	t.Helper()
	log := quietLogger(t)
	metrics := metric.NewRegistry()

	scfg := storage.DefaultConfig(dataDir)
	scfg.SnapshotInterval = -1
	scfg.Logger = log
	scfg.Metrics = metrics

	engine, err := storage.NewEngine(scfg, memory.New())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.Recover(ctx); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	cacheSvc := service.NewCacheService(engine)

	rcfg := redisserver.DefaultConfig()
	rcfg.Address = "127.0.0.1:0"
	cacheServer := redisserver.New(rcfg, cacheSvc, engine, metrics, log)
	if err := cacheServer.Start(ctx); err != nil {
		t.Fatalf("cache server Start: %v", err)
	}

	appCfg := config.Default()
	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Cache = cacheSvc
	routerCfg.Store = engine
	routerCfg.Config = &appCfg
	routerCfg.Metrics = metrics
	routerCfg.Logger = log

	adminServer := httpserver.New("127.0.0.1:0", httpserver.NewRouter(routerCfg), log)
	if err := adminServer.Start(); err != nil {
		t.Fatalf("admin server Start: %v", err)
	}

	return &stack{engine: engine, cacheServer: cacheServer, adminServer: adminServer}
}

func (s *stack) shutdown(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.cacheServer.Shutdown(ctx); err != nil {
		t.Errorf("cache server Shutdown: %v", err)
	}
	if err := s.adminServer.Shutdown(ctx); err != nil {
		t.Errorf("admin server Shutdown: %v", err)
	}
	if err := s.engine.Close(); err != nil {
		t.Errorf("engine Close: %v", err)
	}
}

// TestServerIntegration drives the full stack: RESP commands, admin
// endpoints, a snapshot, and recovery after a restart.
func TestServerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	dataDir := t.TempDir()
	s := startStack(t, ctx, dataDir)

	cl, err := client.Connect(s.cacheServer.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// ============================================================
	// RESP surface
	// ============================================================

	if got, err := cl.Ping(""); err != nil || got != "PONG" {
		t.Fatalf("Ping = %q, %v", got, err)
	}

	binary := []byte("payload\r\nwith\x00framing bytes")
	if err := cl.Set("it:blob:1", binary); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, found, err := cl.Get("it:blob:1")
	if err != nil || !found {
		t.Fatalf("Get found=%v err=%v", found, err)
	}
	if !bytes.Equal(value, binary) {
		t.Fatalf("Get = %q, want %q", value, binary)
	}

	if ok, err := cl.Exists("it:blob:1"); err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if ok, err := cl.Exists("it:blob:none"); err != nil || ok {
		t.Fatalf("Exists(miss) = %v, %v", ok, err)
	}

	// ============================================================
	// Admin surface
	// ============================================================

	admin := connection.NewAdminClient(s.adminServer.Addr())

	healthResp, err := http.Get("http://" + s.adminServer.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	healthResp.Body.Close()
	if healthResp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", healthResp.StatusCode)
	}

	statsResp, err := admin.Get(ctx, "/api/v1/stats")
	if err != nil {
		t.Fatalf("GET /api/v1/stats: %v", err)
	}
	var stats struct {
		Keys int64  `json:"keys"`
		Sets uint64 `json:"sets"`
	}
	if err := connection.ParseEnvelope(statsResp, &stats); err != nil {
		t.Fatalf("parse stats: %v", err)
	}
	if stats.Keys != 1 || stats.Sets != 1 {
		t.Fatalf("stats = %+v, want 1 key, 1 set", stats)
	}

	snapResp, err := admin.Post(ctx, "/api/v1/snapshot", nil)
	if err != nil {
		t.Fatalf("POST /api/v1/snapshot: %v", err)
	}
	var snap struct {
		SnapshotID string `json:"snapshot_id"`
		EntryCount int64  `json:"entry_count"`
	}
	if err := connection.ParseEnvelope(snapResp, &snap); err != nil {
		t.Fatalf("parse snapshot: %v", err)
	}
	if snap.SnapshotID == "" || snap.EntryCount != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}

	// This write lands after the snapshot cut, so recovery must
	// replay it from the WAL.
	if err := cl.Set("it:blob:2", []byte("after snapshot")); err != nil {
		t.Fatalf("Set after snapshot: %v", err)
	}
	if _, err := cl.Del("it:blob:none"); err != nil {
		t.Fatalf("Del: %v", err)
	}

	cl.Close()
	s.shutdown(t)

	// ============================================================
	// Restart on the same data directory
	// ============================================================

	s2 := startStack(t, ctx, dataDir)
	defer s2.shutdown(t)

	cl2, err := client.Connect(s2.cacheServer.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Connect after restart: %v", err)
	}
	defer cl2.Close()

	value, found, err = cl2.Get("it:blob:1")
	if err != nil || !found {
		t.Fatalf("Get it:blob:1 after restart: found=%v err=%v", found, err)
	}
	if !bytes.Equal(value, binary) {
		t.Fatalf("recovered value = %q, want %q", value, binary)
	}

	value, found, err = cl2.Get("it:blob:2")
	if err != nil || !found {
		t.Fatalf("Get it:blob:2 after restart: found=%v err=%v", found, err)
	}
	if !bytes.Equal(value, []byte("after snapshot")) {
		t.Fatalf("replayed value = %q", value)
	}
}
