package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test", limit, window), mr
}

func TestLimiter_AllowsWithinLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "10.0.0.1"), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow(ctx, "10.0.0.1"), "request over the limit should be denied")
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.True(t, l.Allow(ctx, "10.0.0.1"))
	assert.False(t, l.Allow(ctx, "10.0.0.1"))
	assert.True(t, l.Allow(ctx, "10.0.0.2"), "a different client is not affected")
}

func TestLimiter_WindowResets(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.True(t, l.Allow(ctx, "10.0.0.1"))
	require.False(t, l.Allow(ctx, "10.0.0.1"))

	mr.FastForward(61 * time.Second)
	assert.True(t, l.Allow(ctx, "10.0.0.1"), "a new window admits the client again")
}

func TestLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	mr.Close()

	assert.True(t, l.Allow(context.Background(), "10.0.0.1"))
}

func TestLimiter_NilAllowsEverything(t *testing.T) {
	var l *Limiter
	assert.True(t, l.Allow(context.Background(), "10.0.0.1"))
	assert.True(t, New(nil, "test", 5, time.Minute).Allow(context.Background(), "x"))
}
