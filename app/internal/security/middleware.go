package security

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SecureHeaders adds security headers, caps request bodies and tags
// every response with a request ID.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		w.Header().Set("X-Request-ID", uuid.NewString())
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// Limiter implements a per-key token bucket rate limiter.
type Limiter struct {
	mu            sync.Mutex
	buckets       map[string]*bucket
	tokensPerSec  int
	maxTokens     int
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

type bucket struct {
	tokens    int
	lastCheck time.Time
}

// NewLimiter creates a rate limiter refilling tokensPerSec up to
// maxTokens and starts its cleanup goroutine.
func NewLimiter(tokensPerSec, maxTokens int) *Limiter {
	l := &Limiter{
		buckets:      make(map[string]*bucket),
		tokensPerSec: tokensPerSec,
		maxTokens:    maxTokens,
		stopCleanup:  make(chan struct{}),
	}
	l.cleanupTicker = time.NewTicker(5 * time.Minute)
	go l.cleanup()
	return l
}

// cleanup removes stale buckets periodically
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.mu.Lock()
			now := time.Now()
			for key, b := range l.buckets {
				if now.Sub(b.lastCheck) > 10*time.Minute {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			l.cleanupTicker.Stop()
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (l *Limiter) Stop() {
	close(l.stopCleanup)
}

// Allow checks if a request is allowed for the given key (usually IP
// address). Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: l.maxTokens, lastCheck: now}
		l.buckets[key] = b
	}

	refill := int(now.Sub(b.lastCheck).Seconds()) * l.tokensPerSec
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.maxTokens {
			b.tokens = l.maxTokens
		}
		b.lastCheck = now
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Middleware rejects requests whose client IP has exhausted its bucket.
// Heartbeats arrive at most once per second per instance, so one token
// per second with a burst allowance covers well-behaved agents.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
