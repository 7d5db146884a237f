// Package metric provides Prometheus metrics for Blobnom.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, recorder methods, HTTP handler
//   - collector.go: Scrape-time collector fed by engine statistics
//
// Metrics include:
//
//   - Command counters and latency histograms per command name
//   - Connection gauges and rejection counters
//   - Cache hit/miss counters
//   - WAL and snapshot persistence statistics
//
// Metrics are exposed at /metrics on the admin listener in Prometheus
// format.
//
// @req RQ-0403
// @design DS-0402
package metric
