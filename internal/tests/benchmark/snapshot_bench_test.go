package benchmark

import (
	"fmt"
	"testing"

	"github.com/iamd3vil/blobnom/internal/storage/snapshot"
	"github.com/iamd3vil/blobnom/internal/storage/wal"
	"github.com/iamd3vil/blobnom/pkg/crypto/adaptive"
)

// BenchmarkSnapshotCreate benchmarks snapshot creation at various scales.
func BenchmarkSnapshotCreate(b *testing.B) {
	counts := SmallKeyCounts

	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			cfg := snapshot.Config{
				Dir:            b.TempDir(),
				RetentionCount: 3,
			}
			mgr, err := snapshot.NewManager(cfg)
			if err != nil {
				b.Fatalf("NewManager: %v", err)
			}

			entries := benchEntries(count, 1<<10)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := mgr.Create(entries, wal.Offset{}); err != nil {
					b.Fatalf("Create: %v", err)
				}
			}

			b.StopTimer()
			reportMemory(b, "mem")
		})
	}
}

// BenchmarkSnapshotLoad benchmarks snapshot loading at various scales.
func BenchmarkSnapshotLoad(b *testing.B) {
	counts := SmallKeyCounts

	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			cfg := snapshot.Config{
				Dir:            b.TempDir(),
				RetentionCount: 3,
			}
			mgr, err := snapshot.NewManager(cfg)
			if err != nil {
				b.Fatalf("NewManager: %v", err)
			}

			if _, err := mgr.Create(benchEntries(count, 1<<10), wal.Offset{}); err != nil {
				b.Fatalf("Create: %v", err)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				loaded, _, err := mgr.Load()
				if err != nil {
					b.Fatalf("Load: %v", err)
				}
				if len(loaded) != count {
					b.Fatalf("entries = %d, want %d", len(loaded), count)
				}
			}
		})
	}
}

// BenchmarkSnapshotCreateEncrypted benchmarks creation with the data
// section sealed.
func BenchmarkSnapshotCreateEncrypted(b *testing.B) {
	cipher, err := adaptive.New(randomValue(adaptive.KeySize))
	if err != nil {
		b.Fatalf("adaptive.New: %v", err)
	}

	cfg := snapshot.Config{
		Dir:            b.TempDir(),
		RetentionCount: 3,
		Cipher:         cipher,
	}
	mgr, err := snapshot.NewManager(cfg)
	if err != nil {
		b.Fatalf("NewManager: %v", err)
	}

	entries := benchEntries(10000, 1<<10)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := mgr.Create(entries, wal.Offset{}); err != nil {
			b.Fatalf("Create: %v", err)
		}
	}
}

// BenchmarkSnapshotCreateLarge benchmarks large snapshot creation.
func BenchmarkSnapshotCreateLarge(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping large snapshot benchmark in short mode")
	}

	counts := []int{50000, 100000}

	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			cfg := snapshot.Config{
				Dir:            b.TempDir(),
				RetentionCount: 1,
			}
			mgr, err := snapshot.NewManager(cfg)
			if err != nil {
				b.Fatalf("NewManager: %v", err)
			}

			entries := benchEntries(count, 1<<10)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := mgr.Create(entries, wal.Offset{}); err != nil {
					b.Fatalf("Create: %v", err)
				}
			}

			b.StopTimer()
			reportMemory(b, "mem")
		})
	}
}
