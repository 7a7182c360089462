package middleware

import (
	"net/http"
	"sync"
)

// InFlightGuard lets each user run one request at a time through the
// wrapped handler. Extra requests are rejected, not queued.
type InFlightGuard struct {
	mu         sync.Mutex
	busy       map[string]struct{}
	trustProxy bool
}

// NewInFlightGuard creates an empty guard.
func NewInFlightGuard(trustProxy bool) *InFlightGuard {
	return &InFlightGuard{busy: make(map[string]struct{}), trustProxy: trustProxy}
}

// Guard wraps next. Requests without user claims are keyed by client IP.
func (g *InFlightGuard) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r, g.trustProxy)
		if claims, ok := GetUserFromContext(r.Context()); ok {
			key = claims.UserID
		}

		if !g.acquire(key) {
			WriteError(w, http.StatusConflict, "busy", "An analysis is already running for this user")
			return
		}
		defer g.release(key)

		next.ServeHTTP(w, r)
	})
}

func (g *InFlightGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[key]; ok {
		return false
	}
	g.busy[key] = struct{}{}
	return true
}

func (g *InFlightGuard) release(key string) {
	g.mu.Lock()
	delete(g.busy, key)
	g.mu.Unlock()
}
