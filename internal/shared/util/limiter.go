package util

import (
	"context"
	"docgen/internal/shared/observability"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a new token bucket limiter.
// r: tokens per second.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// NewRebuildLimiter allows perMinute rebuilds a minute with a burst of the
// same size. perMinute <= 0 disables throttling.
func NewRebuildLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{inner: rate.NewLimiter(rate.Inf, 0)}
	}
	return NewLimiter(float64(perMinute)/60, perMinute)
}

// Allow reports whether an event with weight n may happen now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// AllowRebuild is Allow(1) that counts refusals as throttled rebuilds.
func (l *Limiter) AllowRebuild() bool {
	if l.Allow(1) {
		return true
	}
	observability.RebuildsThrottledTotal.Inc()
	return false
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}
