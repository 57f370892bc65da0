package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

// RateLimiter counts requests per client IP in fixed windows.
type RateLimiter struct {
	visitors *cache.Cache
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: cache.New(window, window),
		limit:    limit,
		window:   window,
	}
}

// Allow records a request from ip and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ip string) bool {
	if err := rl.visitors.Add(ip, 1, rl.window); err == nil {
		return true
	}

	count, err := rl.visitors.IncrementInt(ip, 1)
	if err != nil {
		// The window expired between Add and IncrementInt.
		rl.visitors.Set(ip, 1, rl.window)
		return true
	}
	return count <= rl.limit
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
