package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/moviepick/internal/config"
)

func newTestRateLimitService(t *testing.T, limit int) *RateLimitService {
	t.Helper()
	_, client := testRedis(t)
	cfg := &config.RateLimitConfig{
		Enabled: true,
		Default: limit,
		Premium: limit * 10,
		Window:  time.Minute,
	}
	return NewRateLimitService(cfg, testLogger(), client)
}

func TestRateLimitService_AllowsUpToLimit(t *testing.T) {
	svc := newTestRateLimitService(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, info, err := svc.IsAllowed(ctx, "client-a", "free")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 3, info.Limit)
		assert.Equal(t, 3-i, info.Remaining)
	}

	allowed, info, err := svc.IsAllowed(ctx, "client-a", "free")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)

	// Other clients have their own window
	allowed, _, err = svc.IsAllowed(ctx, "client-b", "free")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitService_PremiumTier(t *testing.T) {
	svc := newTestRateLimitService(t, 1)

	info, err := svc.CheckLimit(context.Background(), "client-p", "premium")
	require.NoError(t, err)
	assert.Equal(t, 10, info.Limit)
}

func TestRateLimitService_WindowSlides(t *testing.T) {
	svc := newTestRateLimitService(t, 1)
	ctx := context.Background()

	now := time.Now()
	svc.now = func() time.Time { return now }

	allowed, _, err := svc.IsAllowed(ctx, "client-a", "free")
	require.NoError(t, err)
	assert.True(t, allowed)

	svc.now = func() time.Time { return now.Add(time.Second) }
	allowed, _, err = svc.IsAllowed(ctx, "client-a", "free")
	require.NoError(t, err)
	assert.False(t, allowed)

	svc.now = func() time.Time { return now.Add(2 * time.Minute) }
	allowed, _, err = svc.IsAllowed(ctx, "client-a", "free")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitService_RedisDown(t *testing.T) {
	mr, client := testRedis(t)
	svc := NewRateLimitService(&config.RateLimitConfig{Default: 1, Window: time.Minute}, testLogger(), client)
	mr.Close()

	_, _, err := svc.IsAllowed(context.Background(), "client-a", "free")
	assert.Error(t, err)
}
