// Package service provides domain services for Blobnom.
//
// Domain services contain the business logic between the protocol
// frontends and the storage engine. They define interfaces for storage
// dependencies, allowing for dependency injection and testability.
//
// This package contains:
//
//   - CacheService: blob cache operations with domain error translation
//
// Services are stateless and thread-safe. The RESP handler and the
// admin HTTP server share one CacheService instance.
//
// @req RQ-0102
// @design DS-0103
package service
