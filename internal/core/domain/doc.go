// Package domain defines the core domain models for Blobnom.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Entry: A stored blob together with its metadata
//   - CacheStats: Counters surfaced through INFO and the admin API
//   - Errors: Domain-specific error definitions
//
// All limits enforced on keys and values are defined here so the
// service, storage, and server layers agree on one set of rules.
//
// @req RQ-0101
// @design DS-0101
package domain
