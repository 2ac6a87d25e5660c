// Package limiter throttles check requests per client key (usually the remote IP).
package limiter

import (
	"net"
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTracked bounds how many client keys are remembered. The least recently
// seen key is evicted first and starts over with a full bucket.
const maxTracked = 10_000

// Limiter hands out one token bucket per key.
type Limiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

// New creates a Limiter allowing perMinute requests per key with the given burst.
// perMinute <= 0 disables limiting.
func New(perMinute, burst int) *Limiter {
	cache, _ := lru.New[string, *rate.Limiter](maxTracked) // only errors on size <= 0
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{buckets: cache, limit: limit, burst: burst}
}

// Allow reports whether key may proceed now.
func (l *Limiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	b, ok := l.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Add(key, b)
	}
	l.mu.Unlock()
	return b.Allow()
}

// Tracked returns the number of keys currently remembered.
func (l *Limiter) Tracked() int {
	return l.buckets.Len()
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientKey(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"success":false,"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientKey extracts the host part of r.RemoteAddr.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
