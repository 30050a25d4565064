// Package resilience wraps calls to the member directory and interest
// configuration services with retries, a circuit breaker, and a bulkhead.
package resilience

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config bounds how aggressively outbound calls are retried and how many
// may run at once.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// maxBackoff caps the exponential growth so a long retry chain never
// sleeps for minutes between attempts.
const maxBackoff = 10 * time.Second

// RetryWithBackoff runs fn up to MaxRetries+1 times, doubling the wait
// between attempts and adding jitter so concurrent callers do not retry
// in lockstep. The context cancels both the wait and the remaining
// attempts.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := cfg.InitialBackoff << uint(attempt-1)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			if half := int64(backoff / 2); half > 0 {
				backoff += time.Duration(rand.Int63n(half))
			}

			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxRetries+1, lastErr)
}

// NewCircuitBreaker returns a breaker tuned for the small upstream APIs
// this engine talks to: trip once a clear majority of recent calls fail,
// probe again after ten seconds.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRate >= 0.6
		},
	})
}

// Bulkhead limits how many calls run concurrently. The overdue worker
// uses one so a large batch of notices does not flood the SMTP relay.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead allows up to max concurrent holders.
func NewBulkhead(max int) *Bulkhead {
	return &Bulkhead{sem: make(chan struct{}, max)}
}

// Acquire blocks until a slot is free or the context is done.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("bulkhead acquire: %w", ctx.Err())
	}
}

// Release frees a slot taken by Acquire.
func (b *Bulkhead) Release() {
	<-b.sem
}
