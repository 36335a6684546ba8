// Package ratelimit implements a Redis-backed fixed-window request limiter
// for abuse-prone endpoints (login, contact form).
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in fixed windows. A nil Limiter is valid
// and allows everything, so wiring stays unconditional when Redis is not
// configured.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// New creates a Limiter. client may be nil to disable limiting.
func New(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	if client == nil || limit <= 0 || window <= 0 {
		return nil
	}
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow reports whether the request identified by key is within the limit.
// Redis being unreachable fails open: availability of the endpoint wins
// over precision of the limit.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return true
	}

	redisKey := fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		slog.Warn("rate-limit state unavailable",
			"prefix", l.prefix,
			"error", err,
		)
		return true
	}
	if count == 1 {
		// First hit in the window starts the clock.
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			slog.Warn("rate-limit expire failed", "prefix", l.prefix, "error", err)
		}
	}
	return count <= int64(l.limit)
}

// Middleware limits requests per client IP and answers 429 when exceeded.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Allow(r.Context(), clientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false,"error":"too many requests, slow down"}`))
	})
}

// clientIP trusts chi's RealIP middleware to have rewritten RemoteAddr
// from X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
