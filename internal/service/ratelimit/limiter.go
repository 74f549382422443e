package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token bucket for a single outbound channel. The dispatcher
// holds one per transport and consumes a token per delivery attempt.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
	now        func() time.Time
}

func NewBucket(capacity, refillPerSec float64) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillPerSec <= 0 {
		refillPerSec = 1
	}
	b := &Bucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillPerSec,
		now:        time.Now,
	}
	b.last = b.now()
	return b
}

func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
}

// Allow consumes one token if available.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(b.now())
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Delay reports how long the caller must wait for the next token.
// Zero means a token is available now.
func (b *Bucket) Delay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(b.now())
	if b.tokens >= 1 {
		return 0
	}
	missing := 1 - b.tokens
	return time.Duration(missing / b.refillRate * float64(time.Second))
}

// Wait blocks until a token is consumed or ctx is done.
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refill(b.now())
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		missing := 1 - b.tokens
		d := time.Duration(missing / b.refillRate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
