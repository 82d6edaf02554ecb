package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/skatehive/docschat/internal/log"
)

// ipRateLimiter keys token buckets by client IP. Each bucket starts with
// burst tokens and refills at refill tokens per second. Buckets idle past
// staleAfter are swept inline from allow, so no background goroutine is
// needed and nothing has to be stopped on shutdown.
type ipRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*ipBucket

	refill rate.Limit
	burst  int

	sweepEvery time.Duration
	staleAfter time.Duration
	nextSweep  time.Time
}

type ipBucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(refillPerSecond float64, burst int) *ipRateLimiter {
	const (
		sweepEvery = 5 * time.Minute
		staleAfter = 10 * time.Minute
	)
	return &ipRateLimiter{
		buckets:    make(map[string]*ipBucket),
		refill:     rate.Limit(refillPerSecond),
		burst:      burst,
		sweepEvery: sweepEvery,
		staleAfter: staleAfter,
		nextSweep:  time.Now().Add(sweepEvery),
	}
}

// allow reports whether a request from ip may proceed, consuming one
// token when it does.
func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.nextSweep) {
		l.sweepLocked(now)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{tokens: rate.NewLimiter(l.refill, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.tokens.Allow()
}

// sweepLocked drops buckets not seen within staleAfter. Caller holds mu.
func (l *ipRateLimiter) sweepLocked(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.staleAfter {
			delete(l.buckets, ip)
		}
	}
	l.nextSweep = now.Add(l.sweepEvery)
}

// rateLimitMiddleware rejects requests from IPs that have exhausted
// their bucket with 429 and a Retry-After hint.
func rateLimitMiddleware(l *ipRateLimiter, trustProxy bool, logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !l.allow(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "too many requests", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the address used as the limiter key.
//
// With trustProxy set, X-Real-IP wins over the first X-Forwarded-For hop;
// both are validated with net.ParseIP so a forged header cannot plant an
// arbitrary string as a bucket key. Without it only RemoteAddr is
// consulted, which is the right default when the server is exposed
// directly.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			raw := xff
			if first, _, ok := strings.Cut(xff, ","); ok {
				raw = first
			}
			if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
				return ip.String()
			}
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
