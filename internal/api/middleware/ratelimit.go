package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/nichescout/internal/api/response"
	"github.com/kiranshivaraju/nichescout/internal/cache"
)

const (
	defaultRequestsPerMinute = 10
	rateWindow               = time.Minute
)

// windowReader is implemented by caches that report a key's remaining
// lifetime, such as cache.RedisCache.
type windowReader interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
}

var _ windowReader = (*cache.RedisCache)(nil)

// RateLimit provides fixed-window rate limiting per user via Redis.
type RateLimit struct {
	cache          cache.Cache
	scope          string
	requestsPerMin int
}

// NewRateLimit creates a limiter whose counters are namespaced by scope.
func NewRateLimit(c cache.Cache, scope string, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, scope: scope, requestsPerMin: requestsPerMin}
}

// Limit applies rate limiting based on the user id set by Identify.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		if !ok || rl.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := cache.RateLimitKey(rl.scope, userID)
		count, err := rl.cache.IncrWithExpiry(r.Context(), key, rateWindow)
		if err != nil {
			// On Redis error, allow the request (fail open)
			slog.Warn("rate limit check failed", "user_id", userID, "scope", rl.scope, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}
		left := rl.windowLeft(r.Context(), key)
		resetTime := time.Now().Add(left).Unix()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime))

		if count > int64(rl.requestsPerMin) {
			w.Header().Set("Retry-After", strconv.Itoa(int((left+time.Second-1)/time.Second)))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// windowLeft returns how long the current window for key still runs. It
// falls back to a full window when the cache cannot report it.
func (rl *RateLimit) windowLeft(ctx context.Context, key string) time.Duration {
	wr, ok := rl.cache.(windowReader)
	if !ok {
		return rateWindow
	}
	ttl, err := wr.TTL(ctx, key)
	if err != nil || ttl <= 0 || ttl > rateWindow {
		return rateWindow
	}
	return ttl
}
