// Package storage provides the storage engine for Blobnom.
//
// The storage engine combines a pluggable Backend with a WAL
// (Write-Ahead Log) and snapshots to provide a durable blob cache.
//
// Architecture:
//
//   - Backend: the key-value store holding blob values (memory or Badger)
//   - WAL: write-ahead logging for the in-memory backend
//   - Snapshot: periodic point-in-time captures for faster recovery
//
// The engine supports:
//
//   - Validation: key and value size limits enforced before storage
//   - Durability: in-memory writes are logged before the store applies them
//   - Recovery: newest valid snapshot plus WAL replay on startup
//   - Encryption: optional at-rest snapshot encryption
//
// The Badger backend persists its own data, so the engine runs it
// without the WAL and snapshot layers.
//
// @req RQ-0101
// @design DS-0102
package storage
