// Package ratelimit spaces out requests with a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/catalog-crawler/internal/catalog"
	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// Config holds rate limiter configuration. A non-positive RPS disables limiting.
type Config struct {
	RPS   float64
	Burst int
}

// Fetcher waits for a token before every call to the wrapped fetcher.
type Fetcher struct {
	inner   catalog.Fetcher
	limiter *rate.Limiter
}

// New wraps inner. With limiting disabled it returns inner's calls unchanged.
func New(inner catalog.Fetcher, cfg Config) *Fetcher {
	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Fetcher{inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

// Fetch blocks until a token is available or ctx is done, then fetches url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.Wait(ctx); err != nil {
		return "", err
	}
	return f.inner.Fetch(ctx, url)
}

// Wait blocks until a token is available, respecting the context.
func (f *Fetcher) Wait(ctx context.Context) error {
	start := time.Now()
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitWait(waited)
	}
	return nil
}
