package transport

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	retryInitialBackoff = 200 * time.Millisecond
	retryMaxBackoff     = 3 * time.Second
	retryMultiplier     = 2.0
)

// RetryConfig describes exponential backoff for caller-level retries.
// MaxRetries counts retries after the first attempt.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = retryInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = retryMaxBackoff
	}
	if c.Multiplier <= 1 {
		c.Multiplier = retryMultiplier
	}
	return c
}

// RetryHandler re-runs idempotent calls that failed with a retryable error.
// The transport never retries on its own; callers opt in per call site.
// Never wrap order placement in it: a transport failure there leaves the
// order state unknown.
type RetryHandler struct {
	cfg   RetryConfig
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryHandler fills unset fields with 200ms initial, 3s max, factor 2.
func NewRetryHandler(cfg RetryConfig) *RetryHandler {
	return &RetryHandler{cfg: cfg.normalized(), sleep: sleepCtx}
}

// Do runs fn until it succeeds, fails permanently (see IsRetryable) or the
// retry budget is spent. The last error is returned unchanged.
func (r *RetryHandler) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	for retry := 1; ; retry++ {
		err := fn(ctx)
		if err == nil || retry > r.cfg.MaxRetries || !IsRetryable(err) {
			return err
		}
		if r.sleep(ctx, r.delay(retry, err)) != nil {
			return err
		}
	}
}

// delay is the wait before the n-th retry. A Retry-After hint from the
// exchange wins over a shorter computed backoff.
func (r *RetryHandler) delay(n int, err error) time.Duration {
	d := time.Duration(float64(r.cfg.InitialBackoff) * math.Pow(r.cfg.Multiplier, float64(n-1)))
	if d <= 0 || d > r.cfg.MaxBackoff {
		d = r.cfg.MaxBackoff
	}
	var exErr *ExchangeError
	if errors.As(err, &exErr) && exErr.RetryAfter > d {
		d = exErr.RetryAfter
	}
	return d
}

// Retry runs fn under h and returns its value. A nil handler runs fn once.
func Retry[T any](ctx context.Context, h *RetryHandler, fn func(ctx context.Context) (T, error)) (T, error) {
	if h == nil {
		return fn(ctx)
	}
	var out T
	err := h.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
