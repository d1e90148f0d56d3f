package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/efilo/compliance/pkg/cache"
)

// RateLimiter applies per-user fixed-window rate limits backed by Redis.
// Each request increments a counter for the current clock-aligned window;
// the count resets at each window boundary rather than sliding, so a
// burst straddling a boundary can reach twice the limit.
// Two windows are used: a general 1000 req/hour limit and a tighter
// 30 req/minute limit for search. Limiting is disabled in development.
type RateLimiter struct {
	redis     *cache.Client
	requests  int
	window    time.Duration
	keyPrefix string
	enabled   bool
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *cache.Client, requests int, window time.Duration, keyPrefix string, enabled bool) *RateLimiter {
	return &RateLimiter{
		redis:     redis,
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		enabled:   enabled,
	}
}

// Limit returns middleware that applies rate limiting
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}

		identifier := rl.getIdentifier(r)
		key := rl.keyPrefix + ":" + identifier + ":" + currentWindow(rl.window)

		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		count, err := rl.redis.IncrementRateLimit(ctx, key, rl.window)
		if err != nil {
			// Fail-closed: reject requests when Redis is unavailable
			RespondDetail(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(maxInt(0, rl.requests-int(count))))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(nextWindow(rl.window).Unix(), 10))

		if count > int64(rl.requests) {
			retryAfter := int(time.Until(nextWindow(rl.window)).Seconds())
			RateLimited(w, retryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Middleware adapts Limit to the Middleware type for chi.Use
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return rl.Limit(next)
	}
}

func (rl *RateLimiter) getIdentifier(r *http.Request) string {
	// Prefer user ID if authenticated; fall back to remote address
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID
	}
	return "ip:" + clientAddr(r)
}

func clientAddr(r *http.Request) string {
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

func currentWindow(window time.Duration) string {
	return strconv.FormatInt(time.Now().Truncate(window).Unix(), 10)
}

func nextWindow(window time.Duration) time.Time {
	return time.Now().Truncate(window).Add(window)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
