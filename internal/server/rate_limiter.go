package server

import (
	"context"
	"sync"
	"time"
)

// rateLimiter paces inbound lines per connection with a token bucket. Lines
// over the limit wait for a token; they are never discarded.
type rateLimiter struct {
	mu        sync.Mutex
	tokens    float64
	capacity  float64
	rate      float64
	lastCheck time.Time
}

// newRateLimiter returns nil when burst is not positive, which disables pacing.
func newRateLimiter(burst int, interval time.Duration) *rateLimiter {
	if burst <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}

	return &rateLimiter{
		tokens:    float64(burst),
		capacity:  float64(burst),
		rate:      float64(burst) / interval.Seconds(),
		lastCheck: time.Now(),
	}
}

// reserve takes a token if one is available. Otherwise it reports how long
// until the next token refills.
func (rl *rateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastCheck).Seconds()
	rl.lastCheck = now

	if elapsed > 0 {
		rl.tokens += elapsed * rl.rate
		if rl.tokens > rl.capacity {
			rl.tokens = rl.capacity
		}
	}

	if rl.tokens >= 1 {
		rl.tokens--
		return 0, true
	}
	missing := 1 - rl.tokens
	return time.Duration(missing / rl.rate * float64(time.Second)), false
}

// wait blocks until a token is available or ctx is done. A nil limiter never
// blocks.
func (rl *rateLimiter) wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	for {
		delay, ok := rl.reserve()
		if ok {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
