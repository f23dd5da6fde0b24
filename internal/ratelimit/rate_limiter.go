// rate_limiter.go - Rate limiting to stay under the completion provider's quota

package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by every completion call in the process
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter
// maxTokens: burst size (requests allowed back to back)
// refillRate: time between token refills
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	limit := rate.Inf
	if refillRate > 0 {
		limit = rate.Every(refillRate)
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, maxTokens)}
}

// Unlimited returns a limiter that never blocks
func Unlimited() *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
}

// Wait blocks until a token is available or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.limiter == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}

// Default settings for gemini flash models (15 RPM):
// 12 tokens with a 5s refill leaves ~20% headroom for latency and bursts
const (
	DefaultBurst  = 12
	DefaultRefill = 5 * time.Second
)
