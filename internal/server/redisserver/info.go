// Package redisserver provides the RESP2 cache server for Blobnom.
package redisserver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iamd3vil/blobnom/internal/infra/buildinfo"
)

// renderInfo builds the INFO reply in Redis text form, one
// "# Section" header per section followed by key:value lines. A
// section filter is case-insensitive; an unknown section yields an
// empty body.
func (h *handler) renderInfo(section *string) []byte {
	var filter string
	if section != nil {
		filter = strings.ToLower(*section)
	}

	var b strings.Builder
	include := func(name string) bool {
		return filter == "" || filter == name
	}

	if include("server") {
		h.writeServerSection(&b)
	}
	if include("clients") {
		h.writeClientsSection(&b)
	}
	if include("memory") {
		h.writeMemorySection(&b)
	}
	if include("stats") {
		h.writeStatsSection(&b)
	}
	if include("keyspace") {
		h.writeKeyspaceSection(&b)
	}
	if include("persistence") {
		h.writePersistenceSection(&b)
	}

	return []byte(b.String())
}

func (h *handler) writeServerSection(b *strings.Builder) {
	info := buildinfo.Get()
	b.WriteString("# Server\r\n")
	fmt.Fprintf(b, "version:%s\r\n", info.Version)
	fmt.Fprintf(b, "commit:%s\r\n", info.Commit)
	fmt.Fprintf(b, "go_version:%s\r\n", info.GoVersion)
	fmt.Fprintf(b, "run_id:%s\r\n", h.srv.runID)
	fmt.Fprintf(b, "uptime_in_seconds:%d\r\n", int64(time.Since(h.srv.startedAt).Seconds()))
	fmt.Fprintf(b, "listeners:%s\r\n", strings.Join(h.srv.listenAddrs, ","))
	b.WriteString("\r\n")
}

func (h *handler) writeClientsSection(b *strings.Builder) {
	b.WriteString("# Clients\r\n")
	fmt.Fprintf(b, "connected_clients:%d\r\n", h.srv.connCurrent.Load())
	fmt.Fprintf(b, "total_connections_received:%d\r\n", h.srv.connTotal.Load())
	fmt.Fprintf(b, "rejected_connections:%d\r\n", h.srv.connRejected.Load())
	b.WriteString("\r\n")
}

func (h *handler) writeMemorySection(b *strings.Builder) {
	st := h.cache.Stats()
	b.WriteString("# Memory\r\n")
	fmt.Fprintf(b, "keys:%d\r\n", st.Keys)
	fmt.Fprintf(b, "bytes_stored:%d\r\n", st.BytesStored)
	b.WriteString("\r\n")
}

func (h *handler) writeStatsSection(b *strings.Builder) {
	st := h.cache.Stats()
	b.WriteString("# Stats\r\n")
	fmt.Fprintf(b, "total_commands_processed:%d\r\n", st.CommandsProcessed)
	fmt.Fprintf(b, "keyspace_hits:%d\r\n", st.Hits)
	fmt.Fprintf(b, "keyspace_misses:%d\r\n", st.Misses)
	fmt.Fprintf(b, "total_sets:%d\r\n", st.Sets)
	fmt.Fprintf(b, "total_dels:%d\r\n", st.Dels)
	fmt.Fprintf(b, "hit_rate:%s\r\n", strconv.FormatFloat(st.HitRate(), 'f', 4, 64))
	var pruned uint64
	if h.persist != nil {
		pruned = h.persist.PrunedSnapshots()
	}
	fmt.Fprintf(b, "snapshots_pruned:%d\r\n", pruned)
	b.WriteString("\r\n")
}

func (h *handler) writeKeyspaceSection(b *strings.Builder) {
	st := h.cache.Stats()
	b.WriteString("# Keyspace\r\n")
	fmt.Fprintf(b, "db0:keys=%d\r\n", st.Keys)
	b.WriteString("\r\n")
}

func (h *handler) writePersistenceSection(b *strings.Builder) {
	b.WriteString("# Persistence\r\n")
	fmt.Fprintf(b, "backend:%s\r\n", h.srv.cfg.Backend)

	enabled := h.persist != nil && h.persist.PersistenceEnabled()
	fmt.Fprintf(b, "persistence_enabled:%d\r\n", boolDigit(enabled))

	lastID := ""
	lastAge := int64(-1)
	segments := 0
	if h.persist != nil {
		if last := h.persist.LastSnapshot(); last != nil {
			lastID = last.ID
			lastAge = (time.Now().UnixMilli() - last.CreatedAt) / 1000
		}
		segments = h.persist.WALSegments()
	}
	fmt.Fprintf(b, "last_snapshot_id:%s\r\n", lastID)
	fmt.Fprintf(b, "last_snapshot_age_seconds:%d\r\n", lastAge)
	fmt.Fprintf(b, "wal_segments:%d\r\n", segments)
	b.WriteString("\r\n")
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}
