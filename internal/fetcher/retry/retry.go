// Package retry wraps a single-attempt fetcher with a bounded, linearly
// increasing backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/logging"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Defaults mirror the catalog site's tolerance: three tries, waiting 1.5s then 3s.
const (
	DefaultMaxAttempts = 3
	DefaultStep        = 1500 * time.Millisecond
)

// LinearPolicy waits Step×attempt after a failed attempt.
type LinearPolicy struct {
	MaxAttempts int
	Step        time.Duration
}

// Backoff returns the wait after the given (1-based) failed attempt.
func (p LinearPolicy) Backoff(attempt int) time.Duration {
	return p.Step * time.Duration(attempt)
}

// Fetcher implements catalog.Fetcher on top of a single-attempt fetcher.
type Fetcher struct {
	inner   catalog.Fetcher
	sleeper catalog.Sleeper
	policy  LinearPolicy
	logger  *zap.Logger
}

// New builds a retrying Fetcher. A non-positive MaxAttempts falls back to the default.
func New(inner catalog.Fetcher, sleeper catalog.Sleeper, policy LinearPolicy, logger *zap.Logger) *Fetcher {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	return &Fetcher{
		inner:   inner,
		sleeper: sleeper,
		policy:  policy,
		logger:  logging.OrNop(logger),
	}
}

// Fetch tries the URL until it succeeds or attempts run out. The returned
// *catalog.FetchError unwraps to the last attempt's error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		body, err := f.inner.Fetch(ctx, url)
		if err == nil {
			metrics.ObserveFetchAttempt(metrics.OutcomeSuccess)
			return body, nil
		}
		metrics.ObserveFetchAttempt(metrics.OutcomeFailure)
		lastErr = err
		if ctx.Err() != nil {
			return "", &catalog.FetchError{URL: url, Attempts: attempt, Err: errors.Join(err, ctx.Err())}
		}
		if attempt == f.policy.MaxAttempts {
			return "", &catalog.FetchError{URL: url, Attempts: attempt, Err: lastErr}
		}

		wait := f.policy.Backoff(attempt)
		f.logger.Warn("fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		metrics.ObserveBackoff(wait.Seconds())
		if err := f.sleeper.Sleep(ctx, wait); err != nil {
			return "", &catalog.FetchError{URL: url, Attempts: attempt, Err: errors.Join(lastErr, err)}
		}
	}
	return "", &catalog.FetchError{URL: url, Attempts: f.policy.MaxAttempts, Err: lastErr}
}
