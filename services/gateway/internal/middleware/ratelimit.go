package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry pairs a token bucket with the last time its IP was seen.
type limiterEntry struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// limiterTable keeps one token bucket per client IP and evicts buckets
// for IPs that have gone quiet, so the map does not grow without bound.
type limiterTable struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     int
	burst   int
	ttl     time.Duration
	clock   func() time.Time
}

func newLimiterTable(rps, burst int, ttl time.Duration) *limiterTable {
	t := &limiterTable{
		entries: make(map[string]*limiterEntry),
		rps:     rps,
		burst:   burst,
		ttl:     ttl,
		clock:   time.Now,
	}
	go t.evictLoop()
	return t
}

// bucketFor returns the bucket for ip, creating it on first sight and
// refreshing lastSeen either way.
func (t *limiterTable) bucketFor(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ip]
	if !ok {
		e = &limiterEntry{bucket: rate.NewLimiter(rate.Limit(t.rps), t.burst)}
		t.entries[ip] = e
	}
	e.lastSeen = t.clock()
	return e.bucket
}

func (t *limiterTable) evictLoop() {
	ticker := time.NewTicker(t.ttl)
	defer ticker.Stop()
	for range ticker.C {
		t.evictStale()
	}
}

func (t *limiterTable) evictStale() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.clock().Add(-t.ttl)
	for ip, e := range t.entries {
		if e.lastSeen.Before(cutoff) {
			delete(t.entries, ip)
		}
	}
}

func (t *limiterTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *limiterTable) lastSeen(ip string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[ip]
	if !ok {
		return time.Time{}, false
	}
	return e.lastSeen, true
}

// RateLimit enforces a per-IP token bucket of rps requests per second
// with the given burst, answering 429 when the bucket is empty.
func RateLimit(rps, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	const evictInterval = 3 * time.Minute
	table := newLimiterTable(rps, burst, evictInterval)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !table.bucketFor(ip).Allow() {
				logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the client address, preferring proxy headers over
// RemoteAddr: the first parseable entry of X-Forwarded-For, then
// X-Real-IP, then RemoteAddr with the port stripped.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
