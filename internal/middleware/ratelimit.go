package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitMiddleware provides basic rate limiting
type RateLimitMiddleware struct {
	requests   map[string][]int64 // IP -> timestamps
	mu         sync.Mutex
	now        func() time.Time
	trustProxy bool
	window     int64 // longest window seen, in ns
	lastSweep  int64
}

// NewRateLimitMiddleware creates a new rate limiting middleware. With
// trustProxy set, clients are keyed by X-Forwarded-For / X-Real-IP instead of
// the peer address.
func NewRateLimitMiddleware(trustProxy bool) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests:   make(map[string][]int64),
		now:        time.Now,
		trustProxy: trustProxy,
	}
}

// RateLimit applies rate limiting based on IP address
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(getClientIP(r, m.trustProxy), maxRequests, window) {
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(clientIP string, maxRequests int, window time.Duration) bool {
	now := m.now().UnixNano()
	windowStart := now - window.Nanoseconds()

	m.mu.Lock()
	defer m.mu.Unlock()

	if w := window.Nanoseconds(); w > m.window {
		m.window = w
	}
	m.sweep(now)

	valid := m.requests[clientIP][:0]
	for _, ts := range m.requests[clientIP] {
		if ts > windowStart {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= maxRequests {
		m.requests[clientIP] = valid
		return false
	}
	m.requests[clientIP] = append(valid, now)
	return true
}

// sweep drops clients whose newest request is older than the longest window,
// at most once per window. Callers hold m.mu.
func (m *RateLimitMiddleware) sweep(now int64) {
	if now-m.lastSweep < m.window {
		return
	}
	m.lastSweep = now
	cutoff := now - m.window
	for ip, ts := range m.requests {
		if len(ts) == 0 || ts[len(ts)-1] <= cutoff {
			delete(m.requests, ip)
		}
	}
}

// getClientIP extracts the client IP from the request. Forwarding headers are
// client-controlled, so they are read only when trustProxy is set.
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
			return strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return strings.TrimSpace(ip)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
