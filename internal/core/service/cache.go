// Package service provides domain services for Blobnom.
//
// CacheService handles blob cache operations for all frontends.
package service

import (
	"context"

	"github.com/iamd3vil/blobnom/internal/core/domain"
)

// CacheStorage defines the storage interface for cache operations.
//
// @design DS-0103
type CacheStorage interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Del removes key, reporting whether it existed.
	Del(ctx context.Context, key string) (bool, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Stats returns cumulative cache statistics.
	Stats() domain.CacheStats
}

// CacheService sits between the protocol frontends and the storage
// engine. The engine validates keys and values and keeps the
// authoritative counters; the service guarantees that every error a
// frontend sees carries a domain error code, so reply shaping never
// inspects storage internals.
//
// @req RQ-0102
// @design DS-0103
type CacheService struct {
	storage CacheStorage
}

// NewCacheService creates a new CacheService.
//
// @design DS-0103
func NewCacheService(storage CacheStorage) *CacheService {
	return &CacheService{storage: storage}
}

// Get retrieves the value stored under key. A missing key is reported
// as domain.ErrKeyNotFound, which the RESP handler maps to a null
// bulk reply rather than an error reply.
//
// @req RQ-0102
func (s *CacheService) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.storage.Get(ctx, key)
	if err != nil {
		return nil, asDomainError(err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
//
// @req RQ-0102
func (s *CacheService) Set(ctx context.Context, key string, value []byte) error {
	if err := s.storage.Set(ctx, key, value); err != nil {
		return asDomainError(err)
	}
	return nil
}

// Del removes key, reporting whether it existed.
//
// @req RQ-0102
func (s *CacheService) Del(ctx context.Context, key string) (bool, error) {
	existed, err := s.storage.Del(ctx, key)
	if err != nil {
		return false, asDomainError(err)
	}
	return existed, nil
}

// Exists reports whether key is present.
//
// @req RQ-0102
func (s *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	present, err := s.storage.Exists(ctx, key)
	if err != nil {
		return false, asDomainError(err)
	}
	return present, nil
}

// Stats returns cumulative cache statistics for INFO and the admin
// stats endpoint.
//
// @req RQ-0102
func (s *CacheService) Stats() domain.CacheStats {
	return s.storage.Stats()
}

// asDomainError passes coded domain errors through unchanged and wraps
// anything else as a storage failure.
func asDomainError(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
