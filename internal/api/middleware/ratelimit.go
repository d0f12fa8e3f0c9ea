package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-client-IP rate limiting.
type RateLimiter struct {
	every time.Duration
	burst int

	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

// NewRateLimiter creates a limiter that admits one request per every, with
// the given burst, for each client IP. Idle entries are dropped periodically
// until ctx is cancelled.
func NewRateLimiter(ctx context.Context, every time.Duration, burst int) *RateLimiter {
	rl := &RateLimiter{
		every:    every,
		burst:    max(burst, 1),
		limiters: make(map[string]*ipLimiter),
	}
	if ctx != nil {
		go rl.cleanup(ctx)
	}
	return rl
}

// PerMinute creates a limiter admitting n requests per minute with a burst of n.
func PerMinute(ctx context.Context, n int) *RateLimiter {
	n = max(n, 1)
	return NewRateLimiter(ctx, time.Minute/time.Duration(n), n)
}

// Middleware returns an HTTP middleware that rate-limits requests by client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.getLimiter(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", retryAfter(rl.every))
			http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Wrap applies the middleware to a handler function.
func (rl *RateLimiter) Wrap(h http.HandlerFunc) http.HandlerFunc {
	return rl.Middleware(h).ServeHTTP
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Every(rl.every), rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, entry := range rl.limiters {
				if time.Since(entry.lastSeen) > 15*time.Minute {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return strconv.Itoa(max(secs, 1))
}

// clientIP returns the requesting IP. Forwarding headers are trusted only
// when the direct peer is a private or loopback address, and then the
// rightmost X-Forwarded-For entry wins since it was added by that proxy.
func clientIP(r *http.Request) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if !isPrivateIP(remote) {
		return remote
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[len(parts)-1]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xri != "" {
		return xri
	}
	return remote
}

func isPrivateIP(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
