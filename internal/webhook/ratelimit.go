package webhook

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL = 10 * time.Minute
	limiterMaxIPs  = 10000 // max tracked IPs
)

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// rateLimiter is a per-client-IP token bucket. Idle entries are pruned
// when the table fills up.
type rateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*ipLimiter
}

// newRateLimiter returns nil when perMinute is zero, which disables limiting.
func newRateLimiter(perMinute, burst int) *rateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*ipLimiter),
	}
}

func (l *rateLimiter) allow(remoteAddr string) bool {
	if l == nil {
		return true
	}
	host := clientHost(remoteAddr)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[host]
	if !ok {
		if len(l.clients) >= limiterMaxIPs {
			l.prune(now)
		}
		c = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[host] = c
	}
	c.lastAccess = now
	return c.limiter.AllowN(now, 1)
}

// prune drops idle entries, and the oldest one if none are idle.
// Caller holds l.mu.
func (l *rateLimiter) prune(now time.Time) {
	var oldestIP string
	var oldest time.Time
	for ip, c := range l.clients {
		if now.Sub(c.lastAccess) > limiterIdleTTL {
			delete(l.clients, ip)
			continue
		}
		if oldestIP == "" || c.lastAccess.Before(oldest) {
			oldestIP, oldest = ip, c.lastAccess
		}
	}
	if len(l.clients) >= limiterMaxIPs && oldestIP != "" {
		delete(l.clients, oldestIP)
	}
}

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// retryAfter is the number of whole seconds until one token is refilled.
func (l *rateLimiter) retryAfter() int {
	return max(1, int(math.Ceil(1/float64(l.limit))))
}

func rateLimitMiddleware(next http.Handler, l *rateLimiter) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return remoteAddr
	}
	return host
}
