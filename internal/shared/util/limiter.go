package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket limiter used to pace expensive read paths
// (recommendation queries hit several joined tables per request).
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a limiter allowing r events per second with burst b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Limit(r), b)}
}

// PerMinute creates a limiter allowing n events per minute with burst b.
func PerMinute(n float64, b int) *Limiter {
	return NewLimiter(n/60.0, b)
}

// Allow reports whether one event may happen now.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until one token is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.inner.WaitN(ctx, 1)
}
