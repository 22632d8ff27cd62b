// Package resilience retries operations that fail transiently.
//
// Retry backs off exponentially between attempts, with optional jitter,
// and stops early when RetryIf rejects an error or the context ends. The
// process executor uses it for spawns that hit ETXTBSY, and the redis
// key-value store for its startup ping.
//
//	v, err := resilience.Retry(ctx, resilience.RetryConfig{MaxAttempts: 3}, func() (int, error) {
//	    return flaky()
//	})
package resilience
