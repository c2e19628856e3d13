// Package retry implements a bounded exponential backoff policy for calls
// to external capabilities (embedding, generation). The policy is explicit
// so it can be tested independently of the network.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/policypal/policypal/internal/logger"
)

// Default policy values.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 8 * time.Second
	DefaultMultiplier     = 2.0
)

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// Multiplier scales the delay after each failed attempt.
	Multiplier float64

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the policy used for external capability calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Multiplier:     DefaultMultiplier,
	}
}

// Permanent wraps an error to mark it as non-retryable.
// Do stops immediately when fn returns a permanent error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Do runs fn until it succeeds, the attempts are exhausted, fn returns a
// permanent error, or ctx is cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = DefaultInitialBackoff
	}
	maxBackoff := p.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = DefaultMultiplier
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		logger.Warn("%s failed (attempt %d/%d): %v, retrying in %s", op, attempt, attempts, err, backoff)
		if err := sleep(ctx, backoff); err != nil {
			return err
		}

		backoff = time.Duration(float64(backoff) * multiplier)
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	logger.Warn("%s failed after %d attempts: %v", op, attempts, lastErr)
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
