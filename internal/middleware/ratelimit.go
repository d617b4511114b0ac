package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware keeps a token bucket per client IP for unauthenticated
// routes. Buckets idle for a full window are evicted; a refilled bucket and
// a new one are the same.
type RateLimitMiddleware struct {
	limiters   *cache.Cache
	mu         sync.Mutex
	trustProxy bool
	now        func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware. Forwarding
// headers are only honoured when trustProxy is set.
func NewRateLimitMiddleware(trustProxy bool) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiters:   cache.New(time.Minute, time.Minute),
		trustProxy: trustProxy,
		now:        time.Now,
	}
}

// RateLimit allows maxRequests per windowSeconds per client, refilled evenly.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, windowSeconds int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(m.clientIP(r), maxRequests, windowSeconds) {
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(clientIP string, maxRequests, windowSeconds int) bool {
	if maxRequests <= 0 {
		return false
	}
	window := time.Duration(windowSeconds) * time.Second
	key := fmt.Sprintf("%d/%d:%s", maxRequests, windowSeconds, clientIP)

	m.mu.Lock()
	defer m.mu.Unlock()

	var limiter *rate.Limiter
	if v, ok := m.limiters.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rate.Every(window/time.Duration(maxRequests)), maxRequests)
	}
	m.limiters.Set(key, limiter, window)
	return limiter.AllowN(m.now(), 1)
}

// tracked reports how many client buckets are currently held.
func (m *RateLimitMiddleware) tracked() int {
	return m.limiters.ItemCount()
}

// clientIP is the connection's address, or the first forwarded address when
// the service runs behind a trusted proxy.
func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	if m.trustProxy {
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
