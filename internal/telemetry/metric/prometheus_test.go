// Package metric provides Prometheus metrics for Blobnom.
package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// scrape serves one /metrics request against r and returns the body.
func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.connActive == nil {
		t.Error("connActive is nil")
	}
	if r.commandsTotal == nil {
		t.Error("commandsTotal is nil")
	}
	if r.commandDuration == nil {
		t.Error("commandDuration is nil")
	}
	if r.snapshotsTotal == nil {
		t.Error("snapshotsTotal is nil")
	}
}

func TestGlobal(t *testing.T) {
	r1 := Global()
	r2 := Global()
	if r1 != r2 {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler_RuntimeCollectors(t *testing.T) {
	body := scrape(t, NewRegistry())

	// Go runtime metrics from GoCollector.
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	// Process metrics from ProcessCollector.
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

func TestConnectionMetrics(t *testing.T) {
	r := NewRegistry()

	r.IncConnActive()
	r.IncConnActive()
	r.DecConnActive()
	r.IncConnAccepted()
	r.IncConnAccepted()
	r.IncConnRejected("max_conns")
	r.IncConnRejected("rate_limited")
	r.IncConnRejected("rate_limited")

	body := scrape(t, r)

	if !strings.Contains(body, "blobnom_connections_active 1") {
		t.Error("expected blobnom_connections_active 1")
	}
	if !strings.Contains(body, "blobnom_connections_accepted_total 2") {
		t.Error("expected blobnom_connections_accepted_total 2")
	}
	if !strings.Contains(body, `blobnom_connections_rejected_total{reason="max_conns"} 1`) {
		t.Error("expected rejected max_conns 1")
	}
	if !strings.Contains(body, `blobnom_connections_rejected_total{reason="rate_limited"} 2`) {
		t.Error("expected rejected rate_limited 2")
	}
}

func TestCommandMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordCommand("GET", "ok")
	r.RecordCommand("GET", "ok")
	r.RecordCommand("SET", "ok")
	r.RecordCommand("GET", "error")
	r.ObserveCommandDuration("GET", 0.0001)
	r.ObserveCommandDuration("SET", 0.0002)
	r.IncProtocolError()

	body := scrape(t, r)

	if !strings.Contains(body, `blobnom_commands_total{command="GET",status="ok"} 2`) {
		t.Error("expected GET ok count 2")
	}
	if !strings.Contains(body, `blobnom_commands_total{command="SET",status="ok"} 1`) {
		t.Error("expected SET ok count 1")
	}
	if !strings.Contains(body, `blobnom_commands_total{command="GET",status="error"} 1`) {
		t.Error("expected GET error count 1")
	}
	if !strings.Contains(body, "blobnom_command_duration_seconds_bucket") {
		t.Error("expected command duration buckets")
	}
	if !strings.Contains(body, "blobnom_protocol_errors_total 1") {
		t.Error("expected blobnom_protocol_errors_total 1")
	}
}

func TestCacheMetrics(t *testing.T) {
	r := NewRegistry()

	r.IncCacheHit()
	r.IncCacheHit()
	r.IncCacheMiss()

	body := scrape(t, r)

	if !strings.Contains(body, "blobnom_cache_hits_total 2") {
		t.Error("expected blobnom_cache_hits_total 2")
	}
	if !strings.Contains(body, "blobnom_cache_misses_total 1") {
		t.Error("expected blobnom_cache_misses_total 1")
	}
}

func TestPersistenceMetrics(t *testing.T) {
	r := NewRegistry()

	r.IncWALRecord()
	r.IncWALRecord()
	r.AddWALWriteBytes(1024)
	r.AddWALWriteBytes(2048)
	r.RecordSnapshot("success")
	r.RecordSnapshot("failure")
	r.ObserveSnapshotWriteTime(1.5)
	r.SetSnapshotSizeBytes(104857600)

	body := scrape(t, r)

	if !strings.Contains(body, "blobnom_wal_records_total 2") {
		t.Error("expected blobnom_wal_records_total 2")
	}
	if !strings.Contains(body, "blobnom_wal_write_bytes_total 3072") {
		t.Error("expected blobnom_wal_write_bytes_total 3072")
	}
	if !strings.Contains(body, `blobnom_snapshots_total{status="success"} 1`) {
		t.Error("expected snapshots success 1")
	}
	if !strings.Contains(body, `blobnom_snapshots_total{status="failure"} 1`) {
		t.Error("expected snapshots failure 1")
	}
	if !strings.Contains(body, "blobnom_snapshot_write_duration_seconds_count 1") {
		t.Error("expected snapshot write duration count 1")
	}
	if !strings.Contains(body, "blobnom_snapshot_size_bytes 1.048576e+08") {
		t.Error("expected blobnom_snapshot_size_bytes 1.048576e+08")
	}
}

func TestHTTPMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("/healthz", "200")
	r.RecordHTTPRequest("/healthz", "200")
	r.RecordHTTPRequest("/api/v1/stats", "500")
	r.ObserveHTTPDuration("/healthz", 0.001)

	body := scrape(t, r)

	if !strings.Contains(body, `blobnom_http_requests_total{path="/healthz",status="200"} 2`) {
		t.Error("expected healthz 200 count 2")
	}
	if !strings.Contains(body, `blobnom_http_requests_total{path="/api/v1/stats",status="500"} 1`) {
		t.Error("expected stats 500 count 1")
	}
	if !strings.Contains(body, "blobnom_http_request_duration_seconds_count") {
		t.Error("expected http duration count")
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.IncConnActive()
				r.RecordCommand("GET", "ok")
				r.ObserveCommandDuration("GET", 0.001)
				r.IncCacheHit()
				r.DecConnActive()
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	body := scrape(t, r)
	if !strings.Contains(body, `blobnom_commands_total{command="GET",status="ok"} 1000`) {
		t.Error("expected GET ok count 1000 after concurrent updates")
	}
	if !strings.Contains(body, "blobnom_cache_hits_total 1000") {
		t.Error("expected blobnom_cache_hits_total 1000")
	}
}
