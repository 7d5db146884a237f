// Package redisserver provides the RESP2 cache server for Blobnom.
package redisserver

import (
	"context"
	"errors"
	"time"

	"github.com/iamd3vil/blobnom/internal/core/domain"
	"github.com/iamd3vil/blobnom/internal/protocol/resp"
	"github.com/iamd3vil/blobnom/internal/storage/snapshot"
	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
	"github.com/iamd3vil/blobnom/internal/telemetry/metric"
)

// Cache executes cache commands. *service.CacheService implements it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Stats() domain.CacheStats
}

// Persistence reports durability state for the INFO persistence
// section. *storage.Engine implements it.
type Persistence interface {
	PersistenceEnabled() bool
	LastSnapshot() *snapshot.Info
	WALSegments() int
	PrunedSnapshots() uint64
}

// handler turns parsed commands into replies.
type handler struct {
	cache    Cache
	persist  Persistence
	limiters *RateLimiterRegistry
	srv      *Server
	metrics  *metric.Registry
	logger   logger.Logger
}

func newHandler(cache Cache, persist Persistence, limiters *RateLimiterRegistry, srv *Server, metrics *metric.Registry, log logger.Logger) *handler {
	return &handler{
		cache:    cache,
		persist:  persist,
		limiters: limiters,
		srv:      srv,
		metrics:  metrics,
		logger:   log,
	}
}

// execute parses and runs one decoded frame. The second return value
// reports that the connection must close after the reply (QUIT).
func (h *handler) execute(ctx context.Context, clientKey string, v resp.Value) (resp.Value, bool) {
	cmd, err := resp.ParseCommand(v)
	if err != nil {
		h.metrics.IncProtocolError()
		return resp.ErrorString("ERR Invalid protocol: " + invalidMessage(err)), false
	}

	name := resp.CommandName(cmd)

	if _, isQuit := cmd.(resp.Quit); !isQuit && h.limiters != nil {
		if !h.limiters.Allow(clientKey) {
			h.metrics.RecordCommand(name, "ratelimited")
			return wireError(domain.ErrRateLimited), false
		}
	}

	start := time.Now()
	reply, quit := h.dispatch(ctx, cmd)
	h.metrics.ObserveCommandDuration(name, time.Since(start).Seconds())

	status := "ok"
	if reply.Type == resp.TypeError {
		status = "error"
	}
	h.metrics.RecordCommand(name, status)

	return reply, quit
}

func (h *handler) dispatch(ctx context.Context, cmd resp.Command) (resp.Value, bool) {
	switch c := cmd.(type) {
	case resp.Get:
		value, err := h.cache.Get(ctx, c.Key)
		if err != nil {
			if errors.Is(err, domain.ErrKeyNotFound) {
				return resp.NullBulk(), false
			}
			return wireError(err), false
		}
		return resp.Bulk(value), false

	case resp.Set:
		if err := h.cache.Set(ctx, c.Key, c.Value); err != nil {
			return wireError(err), false
		}
		return resp.SimpleString("OK"), false

	case resp.Del:
		removed, err := h.cache.Del(ctx, c.Key)
		if err != nil {
			return wireError(err), false
		}
		return boolInteger(removed), false

	case resp.Exists:
		found, err := h.cache.Exists(ctx, c.Key)
		if err != nil {
			return wireError(err), false
		}
		return boolInteger(found), false

	case resp.Ping:
		if c.Message != nil {
			return resp.BulkString(*c.Message), false
		}
		return resp.SimpleString("PONG"), false

	case resp.Info:
		return resp.Bulk(h.renderInfo(c.Section)), false

	case resp.CommandList:
		return resp.Array(), false

	case resp.Quit:
		return resp.SimpleString("OK"), true

	case resp.Unknown:
		return resp.ErrorString("ERR unknown command '" + c.Name + "'"), false

	default:
		return resp.ErrorString("ERR unknown command"), false
	}
}

func boolInteger(b bool) resp.Value {
	if b {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

// wireError formats an error for the wire. Domain errors carry their
// code, anything else is passed through as-is.
func wireError(err error) resp.Value {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return resp.ErrorString("ERR " + de.Code + " " + de.Message)
	}
	return resp.ErrorString("ERR " + err.Error())
}
