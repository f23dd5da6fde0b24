package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx))
	}

	// bucket is empty and the next token is an hour away
	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx))
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	rl := Unlimited()
	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Wait(context.Background()))
	}
}

func TestNilRateLimiter(t *testing.T) {
	var rl *RateLimiter
	assert.NoError(t, rl.Wait(context.Background()))
}
