package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"verso/internal/logger"
)

// DefaultRateLimit is the default QPS limit.
const DefaultRateLimit = 10

// throttleLogThreshold is how long a call must wait before the wait is logged.
const throttleLogThreshold = 50 * time.Millisecond

// RateLimiter caps model calls per second across all requests. Burst equals
// the QPS so a quiet service can absorb a short spike.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter for qps calls per second.
func NewRateLimiter(qps int) *RateLimiter {
	if qps <= 0 {
		qps = DefaultRateLimit
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(qps), qps),
	}
}

// Wait blocks until a call may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > throttleLogThreshold {
		logger.Debug("model call throttled", "module", "ai", "action", "wait", "resource", "model", "result", "ok", "wait_ms", waited.Milliseconds(), "qps", r.Limit())
	}
	return nil
}

// Limit returns the configured QPS.
func (r *RateLimiter) Limit() int {
	return int(r.limiter.Limit())
}
