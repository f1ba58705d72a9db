// Package ratelimit provides token-bucket rate limiting for HTTP handlers.
//
// Bucket is a single token bucket; Limiter tracks one bucket per client IP
// with periodic cleanup of idle entries and exposes an http middleware.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a single token bucket. It is safe for concurrent use.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	rate       float64 // tokens per second
	lastUpdate time.Time
}

// NewBucket creates a token bucket that refills at rate tokens/second up to
// burst tokens. The bucket starts full. A non-positive burst defaults to
// the rate.
func NewBucket(rate float64, burst int) *Bucket {
	maxTokens := float64(burst)
	if maxTokens <= 0 {
		maxTokens = rate
	}
	return &Bucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		rate:       rate,
		lastUpdate: time.Now(),
	}
}

// refill adds tokens for elapsed time. Caller must hold b.mu.
func (b *Bucket) refill(now time.Time) {
	b.tokens += now.Sub(b.lastUpdate).Seconds() * b.rate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastUpdate = now
}

// Allow consumes one token if available and reports whether it did.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Available returns the current token count including time-based refill.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	tokens := b.tokens + time.Since(b.lastUpdate).Seconds()*b.rate
	if tokens > b.maxTokens {
		tokens = b.maxTokens
	}
	return tokens
}
