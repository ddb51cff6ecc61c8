package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimit bounds mutating calls per client. A zero RequestsPerMinute
// disables limiting.
type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	limit    RateLimit
	mu       sync.Mutex
	visitors map[string]*limiterEntry
	now      func() time.Time
}

func newRateLimiter(limit RateLimit) *rateLimiter {
	if limit.RequestsPerMinute <= 0 {
		return nil
	}
	return &rateLimiter{limit: limit, visitors: make(map[string]*limiterEntry), now: time.Now}
}

// allow reports whether source may issue another call. A nil limiter allows
// everything.
func (r *rateLimiter) allow(source string) bool {
	if r == nil {
		return true
	}
	if source == "" {
		source = "unknown"
	}
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entry := range r.visitors {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(r.visitors, id)
		}
	}
	entry, ok := r.visitors[source]
	if !ok {
		burst := r.limit.Burst
		if burst <= 0 {
			burst = 1
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(r.limit.RequestsPerMinute/60.0), burst)}
		r.visitors[source] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func clientSource(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
