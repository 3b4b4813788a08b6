package common

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy defines bounded exponential backoff with jitter. One policy
// instance is shared by the embedding, managed-index and model boundaries so
// retry behavior stays uniform across external calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first call.
	MaxAttempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the wait between retries.
	MaxDelay time.Duration

	// Multiplier is applied to the delay on each subsequent retry.
	Multiplier float64

	// Jitter is the random fraction (0..1) added to each delay to avoid
	// synchronized retries.
	Jitter float64
}

// NewRetryPolicy builds a policy from configuration.
func NewRetryPolicy(config RetryConfig) *RetryPolicy {
	multiplier := config.Multiplier
	if multiplier < 1.0 {
		multiplier = 2.0
	}
	return &RetryPolicy{
		MaxAttempts: config.MaxAttempts,
		BaseDelay:   Duration(config.BaseDelay, time.Second),
		MaxDelay:    Duration(config.MaxDelay, 30*time.Second),
		Multiplier:  multiplier,
		Jitter:      0.2,
	}
}

// Backoff computes the wait before retry number attempt (zero-based). When
// the provider suggested a delay (rate-limit responses), it is used as the
// base instead of BaseDelay.
func (p *RetryPolicy) Backoff(attempt int, suggested time.Duration) time.Duration {
	base := p.BaseDelay
	if suggested > 0 {
		base = suggested
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= p.Multiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > p.MaxDelay {
		backoff = p.MaxDelay
	}

	if p.Jitter > 0 {
		backoff += time.Duration(rand.Float64() * p.Jitter * float64(backoff))
	}

	return backoff
}

// RetryableFunc is one attempt of an external call.
type RetryableFunc func(ctx context.Context) error

// TransientFunc classifies an error as retryable and may return a
// provider-suggested delay to use as the backoff base.
type TransientFunc func(err error) (transient bool, suggested time.Duration)

// Do runs fn up to MaxAttempts times, backing off between attempts. It stops
// early on success, a non-transient error, or context cancellation. The last
// error is returned when all attempts fail.
func (p *RetryPolicy) Do(ctx context.Context, fn RetryableFunc, transient TransientFunc) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		retryable, suggested := true, time.Duration(0)
		if transient != nil {
			retryable, suggested = transient(lastErr)
		}
		if !retryable || attempt == attempts-1 {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff(attempt, suggested)):
		}
	}

	return lastErr
}
