package benchmark

import (
	"context"
	"crypto/rand"
	"fmt"
	"runtime"
	"testing"

	"github.com/iamd3vil/blobnom/internal/core/domain"
	"github.com/iamd3vil/blobnom/internal/storage/memory"
)

// ValueSizes covers the payload range a blob cache typically carries.
var ValueSizes = []int{64, 1 << 10, 64 << 10, 1 << 20}

// KeyCounts defines store populations for lookup benchmarks.
var KeyCounts = []int{1000, 10000, 100000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

// benchKey returns the i-th benchmark key.
func benchKey(i int) string {
	return fmt.Sprintf("bench:blob:%08d", i)
}

// randomValue returns size bytes of random data.
func randomValue(size int) []byte {
	value := make([]byte, size)
	if _, err := rand.Read(value); err != nil {
		panic(err)
	}
	return value
}

// prefillStore fills a store with count random values of size bytes
// and returns the keys.
func prefillStore(b *testing.B, store *memory.Store, count, size int) []string {
	b.Helper()

	ctx := context.Background()
	value := randomValue(size)
	keys := make([]string, count)
	for i := 0; i < count; i++ {
		keys[i] = benchKey(i)
		if err := store.Set(ctx, keys[i], value); err != nil {
			b.Fatalf("Set: %v", err)
		}
	}
	return keys
}

// benchEntries builds count snapshot entries with size-byte values.
func benchEntries(count, size int) []domain.Entry {
	value := randomValue(size)
	entries := make([]domain.Entry, count)
	for i := range entries {
		entries[i] = domain.Entry{Key: benchKey(i), Value: value}
	}
	return entries
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithValueSizes runs a benchmark function across ValueSizes.
func runWithValueSizes(b *testing.B, benchFn func(b *testing.B, size int)) {
	for _, size := range ValueSizes {
		b.Run(fmt.Sprintf("value_%d", size), func(b *testing.B) {
			benchFn(b, size)
		})
	}
}
