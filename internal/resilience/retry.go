// Package resilience wraps outbound analysis-service calls with retry
// and circuit-breaker protection so a flaky transcription or commentary
// backend degrades a report instead of failing the whole session.
package resilience

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig controls the retry loop around one boundary call.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         bool // Randomize each sleep by up to 25%
}

// DefaultRetryConfig suits short HTTP calls to the analysis services.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// Retry runs fn until it succeeds, the attempts are exhausted, or the
// context is done. isRetryable decides whether an error is worth
// another attempt; nil retries everything. The context error wins when
// cancellation races a failed attempt.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error, isRetryable func(error) bool) error {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if isRetryable != nil && !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		sleep := backoff
		if cfg.Jitter {
			sleep += time.Duration(rand.Float64() * 0.25 * float64(sleep))
		}
		if sleep > cfg.MaxBackoff {
			sleep = cfg.MaxBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return lastErr
}

// RetryableError marks an error as worth retrying regardless of its
// message.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// NewRetryableError wraps err as retryable; nil stays nil.
func NewRetryableError(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err was wrapped as retryable or looks
// like a transient network failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}
	return isTransientNetworkError(err)
}

// isTransientNetworkError matches error text for failures that usually
// clear on their own. Message matching is crude but the boundary
// services sit behind plain HTTP where typed errors are unavailable.
func isTransientNetworkError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"deadline exceeded",
		"i/o timeout",
		"timeout",
		"temporarily unavailable",
		"too many requests",
		"rate limit",
		"service unavailable",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
