// Package memory provides the in-memory storage backend for Blobnom.
//
// It implements the storage.Backend contract over a sharded concurrent
// map, keyed by blob key.
//
// Features:
//
//   - Sharded Storage: Entries distributed across shards for parallelism
//   - Copy Isolation: Values are copied on write and on read, so callers
//     can never alias the bytes the store holds
//   - Snapshot Support: Full state capture and restore for the engine's
//     snapshot and recovery paths
//
// Thread Safety:
//
// All operations are thread-safe through per-shard locking; byte
// accounting uses atomics.
//
// Durability is not handled here: the engine layers WAL and snapshots
// on top of this store.
//
// @design DS-0103
package memory
