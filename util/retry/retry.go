// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts  = 4
	defaultBaseDelay    = 20 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")

	// ErrAttemptTimeout is returned when a single attempt exceeds its own deadline
	// while the caller's context is still alive.
	ErrAttemptTimeout = errors.New("attempt timed out")
)

// Func is the unit of work. It receives the per-attempt context.
type Func func(ctx context.Context) error

type config struct {
	maxAttempts    int
	baseDelay      time.Duration
	jitterFactor   float64
	attemptTimeout time.Duration
	retryIf        func(error) bool
	abortIf        func(error) bool
}

// Meta describes how a Do call went.
type Meta struct {
	Attempts   int
	TotalDelay time.Duration
}

// Do executes fn, retrying errors accepted by the retryIf predicate.
// Attempt timeouts are retryable unless abortIf matches. Errors matched by
// abortIf are returned at once. Cancellation of ctx stops immediately.
//
// Default schedule: 0, 20ms, 40ms, 80ms (+30% jitter).
func Do(ctx context.Context, fn Func, options ...Option) (Meta, error) {
	cfg := &config{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
		retryIf:      func(error) bool { return false },
		abortIf:      func(error) bool { return false },
	}
	for _, option := range options {
		if err := option(cfg); err != nil {
			return Meta{}, err
		}
	}

	var meta Meta
	var lastErr error

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * cfg.jitterFactor //nolint:gosec // jitter only
			backoff := delay + time.Duration(jitter)

			select {
			case <-time.After(backoff):
				meta.TotalDelay += backoff
			case <-ctx.Done():
				return meta, ctx.Err()
			}
		}

		meta.Attempts++
		lastErr = runAttempt(ctx, fn, cfg.attemptTimeout)
		if lastErr == nil {
			return meta, nil
		}
		if ctx.Err() != nil || cfg.abortIf(lastErr) {
			return meta, lastErr
		}
		if !errors.Is(lastErr, ErrAttemptTimeout) && !cfg.retryIf(lastErr) {
			return meta, lastErr
		}
	}

	return meta, lastErr
}

func runAttempt(ctx context.Context, fn Func, timeout time.Duration) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrAttemptTimeout, err)
	}
	return err
}

// Option configures Do using the functional options pattern.
type Option func(*config) error

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(attempts int) Option {
	return func(c *config) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxAttempts = attempts
		return nil
	}
}

// WithBaseDelay sets the base delay. Delays grow as base, base*2, base*4, ...
func WithBaseDelay(delay time.Duration) Option {
	return func(c *config) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}
		c.baseDelay = delay
		return nil
	}
}

// WithJitterFactor sets the jitter as a fraction (0.0 to 1.0) of each delay.
func WithJitterFactor(factor float64) Option {
	return func(c *config) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}
		c.jitterFactor = factor
		return nil
	}
}

// WithAttemptTimeout bounds each attempt. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.attemptTimeout = d
		return nil
	}
}

// WithRetryIf decides which errors are worth another attempt.
func WithRetryIf(pred func(error) bool) Option {
	return func(c *config) error {
		if pred != nil {
			c.retryIf = pred
		}
		return nil
	}
}

// WithAbortIf marks errors that must never be retried, attempt timeouts included.
func WithAbortIf(pred func(error) bool) Option {
	return func(c *config) error {
		if pred != nil {
			c.abortIf = pred
		}
		return nil
	}
}
