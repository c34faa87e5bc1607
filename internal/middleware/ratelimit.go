// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxLimiters bounds the per-IP limiter maps.
const maxLimiters = 10000

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	_ = json.NewEncoder(w).Encode(apiErr)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterCache is a keyed rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*limiterEntry
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*limiterEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// allow reports whether the key may make one more request now.
func (lc *limiterCache[K]) allow(key K) bool {
	now := lc.now()

	lc.mu.RLock()
	e, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if !exists {
		lc.mu.Lock()
		// Double-check after acquiring write lock
		if e, exists = lc.limiters[key]; !exists {
			if len(lc.limiters) >= maxLimiters {
				lc.limiters = make(map[K]*limiterEntry)
				slog.Info("cleared rate limiters due to size")
			}
			e = &limiterEntry{limiter: rate.NewLimiter(lc.rate, lc.burst)}
			lc.limiters[key] = e
		}
		lc.mu.Unlock()
	}

	lc.mu.Lock()
	e.lastSeen = now
	lc.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// prune drops limiters idle for longer than idle and returns how many.
func (lc *limiterCache[K]) prune(idle time.Duration) int {
	cutoff := lc.now().Add(-idle)

	lc.mu.Lock()
	defer lc.mu.Unlock()

	removed := 0
	for k, e := range lc.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(lc.limiters, k)
			removed++
		}
	}
	return removed
}

func (lc *limiterCache[K]) len() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.limiters)
}

// GlobalRateLimiter limits requests per client IP.
type GlobalRateLimiter struct {
	cache *limiterCache[string]
}

// NewGlobalRateLimiter creates a new per-IP rate limiter.
func NewGlobalRateLimiter(rps float64, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{
		cache: newLimiterCache[string](rps, burst),
	}
}

// Middleware returns the rate limiting middleware for API routes (returns JSON errors).
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.cache.allow(ip) {
				slog.Info("api rate limit exceeded", "ip", ip, "path", r.URL.Path)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Cleanup drops limiters idle for an hour.
func (rl *GlobalRateLimiter) Cleanup() int {
	return rl.cache.prune(time.Hour)
}

// clientIP returns the request's client address without the port. chi's
// RealIP middleware has already applied X-Real-IP / X-Forwarded-For.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
