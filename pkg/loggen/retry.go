package loggen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

// backoffMultiplier is the exponential backoff multiplier for retry attempts
const backoffMultiplier = 2.0

// RetryPolicy configures retries of export and upload operations
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt
	MaxRetries int
	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between retries
	MaxBackoff time.Duration
	// JitterFactor spreads each wait by +/- this fraction (0.0 to 1.0)
	JitterFactor float64
}

// applyJitter returns a duration centered on duration, varying by
// +/- jitterFactor. It returns duration unchanged when jitterFactor <= 0.
func applyJitter(duration time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return duration
	}

	//nolint:gosec // Using non-cryptographic random for jitter is acceptable
	multiplier := 1.0 + (rand.Float64()*2.0-1.0)*jitterFactor
	return time.Duration(float64(duration) * multiplier)
}

// Do calls operation and retries it while it fails.
//
// Retry n waits InitialBackoff doubled n-1 times, capped at MaxBackoff
// when MaxBackoff is positive, then spread by JitterFactor. At most
// MaxRetries retries follow the first call; zero or less disables retries.
//
// A nil shouldRetry retries every error. When shouldRetry returns false the
// error is returned at once, prefixed with "permanent error in <name>". When
// ctx ends during a wait, ctx.Err() is returned unwrapped. Exhausted retries
// return the last error prefixed with "max retries (N) exceeded for <name>".
func (p RetryPolicy) Do(
	ctx context.Context,
	operation func() error,
	shouldRetry func(error) bool,
	name string,
	logger *slog.Logger,
) error {
	backoff := p.InitialBackoff

	for attempt := 0; ; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				logger.Info(name+" succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if shouldRetry != nil && !shouldRetry(err) {
			logger.Error(name+" failed with a permanent error", "error", err)
			return fmt.Errorf("permanent error in %s: %w", name, err)
		}
		if attempt >= p.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded for %s: %w", p.MaxRetries, name, err)
		}

		wait := applyJitter(backoff, p.JitterFactor)
		logger.Warn(name+" failed, retrying",
			"attempt", attempt+1,
			"backoffSeconds", wait.Seconds(),
			"error", err)

		if err := sleepCtx(ctx, wait); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Warn(name+" gave up: deadline reached while waiting to retry", "error", err)
			}
			return err
		}
		backoff = p.next(backoff)
	}
}

// next doubles backoff, honoring MaxBackoff only when it is set
func (p RetryPolicy) next(backoff time.Duration) time.Duration {
	backoff = time.Duration(float64(backoff) * backoffMultiplier)
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		return p.MaxBackoff
	}
	return backoff
}

// sleepCtx waits for d or until ctx is done, whichever comes first
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsPermanentError reports whether retrying err cannot help.
//
// Context cancellation and the following S3 errors are permanent:
// - NoSuchBucket: target bucket doesn't exist
// - InvalidAccessKeyId: wrong or invalid credentials
// - AccessDenied: valid credentials but insufficient permissions
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}

	// SDK v2 wraps errors in smithy OperationError, which doesn't properly
	// implement error wrapping for specific types.
	errStr := strings.ToLower(err.Error())
	permanentPatterns := []string{
		"nosuchbucket",
		"invalidaccesskeyid",
		"accessdenied",
	}

	for _, pattern := range permanentPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
