// Package httpserver provides the admin HTTP server for Blobnom.
package httpserver

import (
	"net/http"

	"github.com/iamd3vil/blobnom/internal/server/config"
	"github.com/iamd3vil/blobnom/internal/server/httpserver/handler"
	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
	"github.com/iamd3vil/blobnom/internal/telemetry/metric"
)

// RouterConfig holds configuration for the admin HTTP router.
type RouterConfig struct {
	// Cache supplies statistics for the stats endpoint.
	Cache handler.Cache

	// Store drives readiness and snapshot triggering. May be nil when
	// no storage engine is attached.
	Store handler.Store

	// Config is the running configuration served, sanitized, by the
	// config endpoint.
	Config *config.ServerConfig

	// Metrics is the registry served on /metrics. Nil selects the
	// process-wide registry.
	Metrics *metric.Registry

	// ExposeMetrics mounts the /metrics route. Collection continues
	// either way.
	ExposeMetrics bool

	// Logger for request logging.
	Logger logger.Logger

	// MutateRateLimit is the per-client-IP request rate on mutating
	// routes, in requests per second. Zero disables the limit.
	MutateRateLimit int

	// MutateRateBurst is the burst size for MutateRateLimit. Zero
	// defaults to MutateRateLimit.
	MutateRateBurst int
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		ExposeMetrics:   true,
		MutateRateLimit: 5, // snapshot triggers per second per client IP
		MutateRateBurst: 10,
	}
}

// NewRouter creates and configures the admin HTTP router with all
// routes and middleware.
//
// @design DS-0304
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = metric.Global()
	}

	h := handler.New(cfg.Cache, cfg.Store, cfg.Config, log)

	// Order: Recover -> RequestID -> AccessLog -> RateLimit -> Handler.
	// AccessLog sits outside RateLimit so denied requests still show up
	// in the log and the metrics, with their 429 status.
	readHandler := Chain(h,
		Recover(log),
		RequestID(),
		AccessLog(log, metrics),
	)

	mutateMiddlewares := []Middleware{
		Recover(log),
		RequestID(),
		AccessLog(log, metrics),
	}
	if cfg.MutateRateLimit > 0 {
		mutateMiddlewares = append(mutateMiddlewares, RateLimit(cfg.MutateRateLimit, cfg.MutateRateBurst))
	}
	mutateHandler := Chain(h, mutateMiddlewares...)

	mux := http.NewServeMux()

	// Health probes
	mux.Handle("GET /healthz", readHandler)
	mux.Handle("GET /readyz", readHandler)

	// Prometheus text format, no envelope and no access log
	if cfg.ExposeMetrics {
		mux.Handle("GET /metrics", Chain(metrics.Handler(), Recover(log), RequestID()))
	}

	// Cache statistics and running configuration
	mux.Handle("GET /api/v1/stats", readHandler)
	mux.Handle("GET /api/v1/config", readHandler)

	// Snapshot trigger, the one mutating route
	mux.Handle("POST /api/v1/snapshot", mutateHandler)

	return mux
}
