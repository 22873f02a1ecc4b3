package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// NonRetryableError wraps errors that should not be retried
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable wraps an error to indicate it should not be retried
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable checks if an error is marked as non-retryable
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Config provides backoff configuration.
type Config struct {
	MaxRetries   int           // Maximum retries after the first attempt (0 = no retry)
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Ceiling for the computed delay
	Multiplier   float64       // Backoff multiplier (typically 2.0)
}

// DefaultConfig returns the pipeline's standard backoff: up to three retries
// at 1s/2s/4s, capped at 10s.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// normalized fills in zero fields with defaults and clamps nonsense values.
func (c Config) normalized() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 1 * time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.Multiplier > 1000 {
		c.Multiplier = 1000
	}
	return c
}

// Delay returns the backoff before retry number attempt (0-based):
// min(InitialDelay * Multiplier^attempt, MaxDelay).
func (c Config) Delay(attempt int) time.Duration {
	c = c.normalized()
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) || math.IsInf(delay, 1) {
		return c.MaxDelay
	}
	return time.Duration(delay)
}

// Sleep waits for the given duration or until the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes fn, retrying with exponential backoff until it succeeds, the
// retry budget is exhausted, the error is marked non-retryable, or the
// context is cancelled.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	cfg = cfg.normalized()

	var lastErr error
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsNonRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled after attempt %d: %w", attempt+1, ctx.Err())
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		if err := Sleep(ctx, cfg.Delay(attempt)); err != nil {
			return fmt.Errorf("retry cancelled during backoff: %w", err)
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}
