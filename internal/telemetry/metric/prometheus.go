// Package metric provides Prometheus metrics for Blobnom.
//
// It exposes metrics in Prometheus format for monitoring command
// throughput, connection load, cache effectiveness, and persistence.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace prefixes every metric name.
const namespace = "blobnom"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Connection metrics
	connActive   prometheus.Gauge
	connAccepted prometheus.Counter
	connRejected *prometheus.CounterVec

	// Command metrics
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	protocolErrors  prometheus.Counter

	// Cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Persistence metrics
	walRecords        prometheus.Counter
	walWriteBytes     prometheus.Counter
	snapshotsTotal    *prometheus.CounterVec
	snapshotWriteTime prometheus.Histogram
	snapshotSizeBytes prometheus.Gauge

	// Admin HTTP metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewRegistry creates a new metrics registry with all application
// metrics plus the Go runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		connActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently open cache connections.",
		}),
		connAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Total cache connections accepted.",
		}),
		connRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Total cache connections rejected, by reason.",
		}, []string{"reason"}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total commands processed, by command and status.",
		}, []string{"command", "status"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command processing latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 12),
		}, []string{"command"}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total protocol violations received from clients.",
		}),

		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total GET commands that found the key.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total GET commands that missed.",
		}),

		walRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wal_records_total",
			Help:      "Total records appended to the write-ahead log.",
		}),
		walWriteBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wal_write_bytes_total",
			Help:      "Total bytes written to the write-ahead log.",
		}),
		snapshotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Total snapshot attempts, by status.",
		}, []string{"status"}),
		snapshotWriteTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_write_duration_seconds",
			Help:      "Snapshot write latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		snapshotSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_size_bytes",
			Help:      "Size in bytes of the most recent snapshot.",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total admin HTTP requests, by path and status.",
		}, []string{"path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Admin HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}

	r.registry.MustRegister(
		r.connActive,
		r.connAccepted,
		r.connRejected,
		r.commandsTotal,
		r.commandDuration,
		r.protocolErrors,
		r.cacheHits,
		r.cacheMisses,
		r.walRecords,
		r.walWriteBytes,
		r.snapshotsTotal,
		r.snapshotWriteTime,
		r.snapshotSizeBytes,
		r.httpRequests,
		r.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// global holds the default registry instance.
var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide default registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns an HTTP handler serving this registry's metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// RegisterCacheCollector attaches a scrape-time collector that reads
// live statistics from the storage engine.
func (r *Registry) RegisterCacheCollector(stats func() Stats) {
	r.registry.MustRegister(NewCacheCollector(stats))
}

// Registerer exposes the underlying registerer so components with their
// own metric sets (the Badger backend, for one) can attach them.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// ============================================================
// Connection metrics
// ============================================================

// IncConnActive increments the active connection gauge.
func (r *Registry) IncConnActive() { r.connActive.Inc() }

// DecConnActive decrements the active connection gauge.
func (r *Registry) DecConnActive() { r.connActive.Dec() }

// IncConnAccepted counts an accepted connection.
func (r *Registry) IncConnAccepted() { r.connAccepted.Inc() }

// IncConnRejected counts a rejected connection with a reason such as
// "max_conns" or "rate_limited".
func (r *Registry) IncConnRejected(reason string) {
	r.connRejected.WithLabelValues(reason).Inc()
}

// ============================================================
// Command metrics
// ============================================================

// RecordCommand counts one processed command with status "ok" or "error".
func (r *Registry) RecordCommand(command, status string) {
	r.commandsTotal.WithLabelValues(command, status).Inc()
}

// ObserveCommandDuration records command processing latency.
func (r *Registry) ObserveCommandDuration(command string, seconds float64) {
	r.commandDuration.WithLabelValues(command).Observe(seconds)
}

// IncProtocolError counts a protocol violation.
func (r *Registry) IncProtocolError() { r.protocolErrors.Inc() }

// ============================================================
// Cache metrics
// ============================================================

// IncCacheHit counts a GET that found its key.
func (r *Registry) IncCacheHit() { r.cacheHits.Inc() }

// IncCacheMiss counts a GET miss.
func (r *Registry) IncCacheMiss() { r.cacheMisses.Inc() }

// ============================================================
// Persistence metrics
// ============================================================

// IncWALRecord counts one appended WAL record.
func (r *Registry) IncWALRecord() { r.walRecords.Inc() }

// AddWALWriteBytes counts bytes written to the WAL.
func (r *Registry) AddWALWriteBytes(n float64) { r.walWriteBytes.Add(n) }

// RecordSnapshot counts a snapshot attempt with status "success" or
// "failure".
func (r *Registry) RecordSnapshot(status string) {
	r.snapshotsTotal.WithLabelValues(status).Inc()
}

// ObserveSnapshotWriteTime records snapshot write latency.
func (r *Registry) ObserveSnapshotWriteTime(seconds float64) {
	r.snapshotWriteTime.Observe(seconds)
}

// SetSnapshotSizeBytes records the size of the latest snapshot.
func (r *Registry) SetSnapshotSizeBytes(n float64) { r.snapshotSizeBytes.Set(n) }

// ============================================================
// Admin HTTP metrics
// ============================================================

// RecordHTTPRequest counts one admin HTTP request.
func (r *Registry) RecordHTTPRequest(path, status string) {
	r.httpRequests.WithLabelValues(path, status).Inc()
}

// ObserveHTTPDuration records admin HTTP request latency.
func (r *Registry) ObserveHTTPDuration(path string, seconds float64) {
	r.httpDuration.WithLabelValues(path).Observe(seconds)
}
