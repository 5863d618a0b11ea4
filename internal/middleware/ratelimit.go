package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter throttles the routes that cost something to serve: session
// creation and turn initiation (chat messages and booking submissions).
// Counting is per remote address over fixed windows; the first request
// past a window's deadline opens a fresh one.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
	}
	go rl.sweep()
	return rl
}

// sweep drops lapsed windows so addresses of visitors who left do not
// accumulate for the lifetime of the process.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.period)
	defer ticker.Stop()
	for now := range ticker.C {
		rl.mu.Lock()
		for addr, w := range rl.windows {
			if now.After(w.resetAt) {
				delete(rl.windows, addr)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow records one request from addr and reports whether it still fits in
// the address's current window.
func (rl *RateLimiter) Allow(addr string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[addr]
	if !ok || now.After(w.resetAt) {
		rl.windows[addr] = &window{count: 1, resetAt: now.Add(rl.period)}
		return true
	}

	w.count++
	return w.count <= rl.limit
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
				"You're sending requests too quickly. Please wait a moment.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
