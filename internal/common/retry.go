package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/Veraticus/overtime-sync/internal/service"
)

// ErrMaxRetries indicates that all retry attempts have been exhausted.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// RetryPolicy decides how often and how long to wait between attempts of a
// remote step. The zero value is not useful; start from NewRetryPolicy.
type RetryPolicy struct {
	Retryable   func(error) bool
	Sleep       func(ctx context.Context, d time.Duration) error
	Rand        func() float64
	Logger      *slog.Logger
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration
	Multiplier  float64
}

// NewRetryPolicy builds a policy from configured options, filling defaults.
func NewRetryPolicy(opts service.RetryOptions, logger *slog.Logger) RetryPolicy {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.InitialDelay < 0 {
		opts.InitialDelay = 0
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	if opts.Jitter < 0 {
		opts.Jitter = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	retryable := IsRetryable
	if opts.TransientOnly {
		retryable = IsTransient
	}

	return RetryPolicy{
		MaxAttempts: opts.MaxAttempts,
		BaseDelay:   opts.InitialDelay,
		Multiplier:  opts.Multiplier,
		MaxDelay:    opts.MaxDelay,
		Jitter:      opts.Jitter,
		Retryable:   retryable,
		Sleep:       sleepContext,
		Rand:        rand.Float64,
		Logger:      logger,
	}
}

// Backoff returns the wait before the next attempt after attempt (1-based)
// failed: BaseDelay * Multiplier^(attempt-1) plus up to Jitter of noise,
// capped at MaxDelay when one is set.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		r := rand.Float64
		if p.Rand != nil {
			r = p.Rand
		}
		delay += r() * float64(p.Jitter)
	}
	return time.Duration(delay)
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempt cap is reached. The last error is returned wrapped so that both
// ErrMaxRetries and the original error match with errors.Is.
func (p RetryPolicy) Do(ctx context.Context, step string, op func(context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("step recovered", "step", step, "attempt", attempt)
			}
			return nil
		}

		if !retryable(err) {
			return err
		}

		if attempt >= maxAttempts {
			logger.Warn("step failed, giving up",
				"step", step,
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", err)
			return fmt.Errorf("%s: %w after %d attempts: %w", step, ErrMaxRetries, maxAttempts, err)
		}

		delay := p.Backoff(attempt)
		logger.Warn("step failed, retrying",
			"step", step,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay.Round(time.Millisecond),
			"error", err)

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// Retry is Do for operations that produce a value.
func Retry[T any](ctx context.Context, p RetryPolicy, step string, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, step, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
