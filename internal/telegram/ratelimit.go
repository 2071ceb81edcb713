package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrFloodWait is returned by Wait when a FLOOD_WAIT pause outlasts MaxWait.
var ErrFloodWait = errors.New("telegram flood wait in progress")

// RateLimiter controls the frequency of requests to Telegram API.
type RateLimiter struct {
	limiter *rate.Limiter

	// longest FLOOD_WAIT pause Wait sits through; 0 waits for any pause
	maxWait time.Duration

	// additional backoff after FLOOD_WAIT
	floodWaitUntil time.Time
	mu             sync.Mutex

	now func() time.Time
}

// NewRateLimiter creates a rate limiter for Telegram.
// rps - requests per second, burst - allowed burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		now:     time.Now,
	}
}

// DefaultRateLimiter returns a limiter with conservative settings.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(2.0, 1)
}

// WithMaxWait sets the longest flood-wait pause Wait will sit through.
func (r *RateLimiter) WithMaxWait(d time.Duration) *RateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxWait = d
	return r
}

// Wait blocks until the next request is allowed.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if remaining := r.FloodWaitRemaining(); remaining > 0 {
		r.mu.Lock()
		maxWait := r.maxWait
		r.mu.Unlock()

		if maxWait > 0 && remaining > maxWait {
			return fmt.Errorf("%w: %s left", ErrFloodWait, remaining.Round(time.Second))
		}

		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return r.limiter.Wait(ctx)
}

// SetFloodWait pauses all requests for d. A shorter pause never
// shortens one already in progress.
func (r *RateLimiter) SetFloodWait(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until := r.now().Add(d)
	if until.After(r.floodWaitUntil) {
		r.floodWaitUntil = until
	}
}

// FloodWaitRemaining returns how long the current pause still lasts.
func (r *RateLimiter) FloodWaitRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := r.floodWaitUntil.Sub(r.now()); remaining > 0 {
		return remaining
	}
	return 0
}
