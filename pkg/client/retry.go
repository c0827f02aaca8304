package client

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Sternrassler/workshop-collector/pkg/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workshop_retries_total",
		Help: "Total number of page request retries",
	})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "workshop_retry_backoff_seconds",
		Help:    "Backoff duration waited before a retry",
		Buckets: []float64{0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
	})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workshop_retry_exhausted_total",
		Help: "Total number of page requests that exhausted all attempts",
	})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// BaseBackoff is multiplied by 2^attempt to get the wait after a failed attempt.
	BaseBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration:
// six attempts waiting 200ms, 400ms, 800ms, 1.6s and 3.2s in between.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 6,
		BaseBackoff: 100 * time.Millisecond,
	}
}

// Backoff returns the wait after the given failed attempt (counted from 1).
// There is no jitter; the wait only stops doubling where it would overflow
// time.Duration.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if c.BaseBackoff <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 63 || c.BaseBackoff > time.Duration(math.MaxInt64>>uint(attempt)) {
		return time.Duration(math.MaxInt64)
	}
	return c.BaseBackoff << uint(attempt)
}

// retryWithBackoff calls fn until it succeeds or MaxAttempts calls have failed.
// Every error returned by fn is retried; only context cancellation stops early.
// No wait follows the final attempt.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, clk clock.Clock, logger zerolog.Logger, fn func(attempt int) error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctxErr)
		}

		if attempt >= cfg.MaxAttempts {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Msgf("Attempt %d failed", attempt)
			break
		}

		backoff := cfg.Backoff(attempt)
		retriesTotal.Inc()
		retryBackoffSeconds.Observe(backoff.Seconds())

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msgf("Attempt %d failed - retrying", attempt)

		if err := clk.Sleep(ctx, backoff); err != nil {
			logger.Warn().
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}
	}

	retryExhaustedTotal.Inc()
	logger.Error().
		Err(lastErr).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, cfg.MaxAttempts, lastErr)
}
