package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Defaults for idle-entry cleanup.
const (
	DefaultCleanupInterval = time.Minute
	DefaultEntryTTL        = time.Minute
)

type clientBucket struct {
	bucket   *Bucket
	lastSeen time.Time
}

// Limiter implements per-client-IP token-bucket rate limiting. Idle client
// entries are removed by a background goroutine; call Stop to end it.
type Limiter struct {
	rate  float64
	burst int

	mu      sync.Mutex
	clients map[string]*clientBucket

	cleanupInterval time.Duration
	entryTTL        time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
}

// NewLimiter creates a per-IP limiter with the given rate (requests/second)
// and burst, and starts its cleanup goroutine.
func NewLimiter(rate float64, burst int) *Limiter {
	if rate <= 0 {
		rate = 100
	}
	if burst <= 0 {
		burst = int(rate * 2)
	}

	l := &Limiter{
		rate:            rate,
		burst:           burst,
		clients:         make(map[string]*clientBucket),
		cleanupInterval: DefaultCleanupInterval,
		entryTTL:        DefaultEntryTTL,
		stopCh:          make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether the client identified by addr may proceed.
func (l *Limiter) Allow(addr string) bool {
	key := clientIP(addr)

	l.mu.Lock()
	cb, ok := l.clients[key]
	if !ok {
		cb = &clientBucket{bucket: NewBucket(l.rate, l.burst)}
		l.clients[key] = cb
	}
	cb.lastSeen = time.Now()
	l.mu.Unlock()

	return cb.bucket.Allow()
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// ClientCount returns the number of tracked client entries.
func (l *Limiter) ClientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, cb := range l.clients {
				if now.Sub(cb.lastSeen) > l.entryTTL {
					delete(l.clients, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// clientIP strips the port from a RemoteAddr, falling back to the raw
// string when it has no port.
func clientIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// Middleware wraps next with per-IP rate limiting, answering 429 with a
// Retry-After hint when the client's bucket is empty.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","message":"too many requests"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
