package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter decides whether the client identified by key may proceed.
type rateLimiter interface {
	Allow(key string) bool
}

const (
	maxTrackedClients = 4096
	clientIdleTTL     = 5 * time.Minute
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address so a single caller
// asking for large surfaces cannot exhaust the budget of everyone else. At most
// maxClients buckets are tracked; idle ones are evicted first, then the least
// recently seen.
type clientLimiter struct {
	mu         sync.Mutex
	limit      rate.Limit
	burst      int
	maxClients int
	idleTTL    time.Duration
	now        func() time.Time
	buckets    map[string]*clientBucket
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	return newClientLimiter(ratePerSecond, burst, maxTrackedClients, time.Now)
}

func newClientLimiter(ratePerSecond float64, burst, maxClients int, now func() time.Time) *clientLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &clientLimiter{
		limit:      rate.Limit(ratePerSecond),
		burst:      burst,
		maxClients: maxClients,
		idleTTL:    clientIdleTTL,
		now:        now,
		buckets:    make(map[string]*clientBucket),
	}
}

func (l *clientLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	now := l.now()
	bucket, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.maxClients {
			l.evict(now)
		}
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = bucket
	}
	bucket.lastSeen = now
	l.mu.Unlock()
	return bucket.limiter.AllowN(now, 1)
}

// evict drops buckets idle for longer than idleTTL. When none are idle it drops
// the least recently seen one. Callers hold l.mu.
func (l *clientLimiter) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
			continue
		}
		if !found || b.lastSeen.Before(oldest) {
			oldestKey, oldest, found = key, b.lastSeen, true
		}
	}
	if len(l.buckets) >= l.maxClients && found {
		delete(l.buckets, oldestKey)
	}
}

func (l *clientLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// clientKey returns the host part of the remote address, or the raw value when
// it carries no port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(clientKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
