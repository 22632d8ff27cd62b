package resilience

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/kbukum/goplatform/errors"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts counts the first attempt. Defaults to 3.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
	// BackoffFactor multiplies the delay after every attempt.
	BackoffFactor float64
	// Jitter spreads each delay by up to this fraction either way (0.0 to 1.0).
	Jitter float64
	// RetryIf reports whether an error is worth another attempt.
	// Defaults to DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry runs before each sleep.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// ApplyDefaults fills unset fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// DefaultRetryIf retries everything except context cancellation and
// expiry.
func DefaultRetryIf(err error) bool {
	return !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, context.DeadlineExceeded)
}

// RetryOnReasons retries only errors classified as one of reasons. A spawn
// that fails with ETXTBSY is the common case:
//
//	cfg.RetryIf = resilience.RetryOnReasons(errors.ReasonBusy)
func RetryOnReasons(reasons ...errors.Reason) func(error) bool {
	return func(err error) bool {
		return slices.Contains(reasons, reasonOf(err))
	}
}

func reasonOf(err error) errors.Reason {
	if sys, ok := errors.AsSystemError(err); ok {
		return sys.Reason
	}
	return errors.ReasonOf(err)
}

// Retry calls fn until it succeeds, RetryIf rejects its error, the
// attempts run out or ctx ends. It returns the last error fn produced, or
// ctx.Err() if the context ended first.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	cfg.ApplyDefaults()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, err
		}

		backoff := cfg.backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}
		if !sleep(ctx, backoff) {
			return zero, ctx.Err()
		}
	}
}

// RetryFunc is Retry for functions without a result.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// backoff returns the delay after attempt: InitialBackoff *
// BackoffFactor^(attempt-1), jittered, capped at MaxBackoff.
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if c.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * c.Jitter
	}
	d = min(d, float64(c.MaxBackoff))
	if d < 0 {
		d = float64(c.InitialBackoff)
	}
	return time.Duration(d)
}
