package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/mandantenanalyse/internal/service"
)

var (
	// ErrRateLimit indicates that the API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError marks whether a failed remote call may be repeated.
// RetryAfter is the wait the server asked for, zero when it gave none.
type RetryableError struct {
	Err        error
	Retryable  bool
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// WithRetry runs operation until it succeeds, returns a permanent error or
// runs out of attempts. Delays grow by opts.Multiplier up to opts.MaxDelay; a
// server-requested RetryAfter replaces the computed delay for that attempt,
// and a bare rate limit waits MaxDelay. op names the call in the logs.
func WithRetry(ctx context.Context, op string, operation func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)
	delay := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		var retryableErr *RetryableError
		isRetryable := errors.As(err, &retryableErr)
		if isRetryable && !retryableErr.Retryable {
			return err
		}

		wait := delay
		switch {
		case isRetryable && retryableErr.RetryAfter > 0:
			wait = min(retryableErr.RetryAfter, opts.MaxDelay)
		case errors.Is(err, ErrRateLimit):
			wait = opts.MaxDelay
		}

		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%s: %w after %d attempts: %w", op, ErrMaxRetries, opts.MaxAttempts, err)
		}

		slog.Warn("Remote call failed, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay = min(time.Duration(float64(delay)*opts.Multiplier), opts.MaxDelay)
	}
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	return opts
}
