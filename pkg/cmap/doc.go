// Package cmap provides a concurrent map implementation for Blobnom.
//
// This package implements a sharded concurrent map used as the primary
// index of the in-memory storage backend:
//
//   - Sharding: Power-of-two shard count, keys placed by murmur3 hash
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Iteration: Safe iteration while holding per-shard read locks
//
// Usage:
//
//	m := cmap.New[string, domain.Entry]()
//	m.Set("key", entry)
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete, Pop) use Lock.
//
// @design DS-0102
package cmap
