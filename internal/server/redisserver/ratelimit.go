// Package redisserver provides the RESP2 cache server for Blobnom.
package redisserver

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterRegistry hands out one token bucket per client key. Keys
// are client IPs for TCP and TLS connections and a fixed key for unix
// socket peers.
type RateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiterRegistry creates a registry allowing perSecond
// commands per key. A burst of zero uses perSecond.
func NewRateLimiterRegistry(perSecond, burst int) *RateLimiterRegistry {
	if burst <= 0 {
		burst = perSecond
	}
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// GetOrCreate returns the limiter for key, creating it on first use.
func (r *RateLimiterRegistry) GetOrCreate(key string) *rate.Limiter {
	r.mu.RLock()
	lim, ok := r.limiters[key]
	r.mu.RUnlock()
	if ok {
		return lim
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if lim, ok := r.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = lim
	return lim
}

// Allow reports whether one command from key fits its budget now.
func (r *RateLimiterRegistry) Allow(key string) bool {
	return r.GetOrCreate(key).Allow()
}

// Delete removes the limiter for key.
func (r *RateLimiterRegistry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.limiters, key)
}

// Len returns the number of tracked keys.
func (r *RateLimiterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.limiters)
}
