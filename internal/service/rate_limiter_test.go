package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prperemyshlev/spotlight-api/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*database.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return database.NewRedisFromClient(client), mr
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRedisRateStore_SlidingWindow(t *testing.T) {
	rdb, _ := newTestRedis(t)
	store := NewRedisRateStore(rdb)
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = c.now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, "register:198.51.100.7", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
		c.advance(10 * time.Minute)
	}

	res, err := store.Allow(ctx, "register:198.51.100.7", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 30*time.Minute, res.RetryAfter)

	other, err := store.Allow(ctx, "register:198.51.100.8", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	c.advance(30*time.Minute + time.Millisecond)
	res, err = store.Allow(ctx, "register:198.51.100.7", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisRateStore_Unavailable(t *testing.T) {
	rdb, mr := newTestRedis(t)
	store := NewRedisRateStore(rdb)
	mr.Close()

	_, err := store.Allow(context.Background(), "general:203.0.113.1", 10, time.Minute)
	assert.Error(t, err)
}

func TestMemoryRateStore(t *testing.T) {
	store := NewMemoryRateStore()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = c.now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, "login:203.0.113.1", 3, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := store.Allow(ctx, "login:203.0.113.1", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.InDelta(t, float64(5*time.Minute), float64(res.RetryAfter), float64(time.Millisecond))

	c.advance(5*time.Minute + time.Second)
	res, err = store.Allow(ctx, "login:203.0.113.1", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryRateStore_PrunesIdleKeys(t *testing.T) {
	store := NewMemoryRateStore()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = c.now
	ctx := context.Background()

	_, err := store.Allow(ctx, "general:a", 10, time.Minute)
	require.NoError(t, err)

	c.advance(3 * time.Minute)
	_, err = store.Allow(ctx, "general:b", 10, time.Minute)
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.entries, "general:a")
	assert.Contains(t, store.entries, "general:b")
}

func TestRateLimiter_Policies(t *testing.T) {
	limiter := NewRateLimiter(NewMemoryRateStore(),
		Policy{Name: PolicyLogin, Max: 1, Window: time.Minute},
		Policy{Name: PolicyGeneral, Max: 100, Window: time.Minute},
	)
	ctx := context.Background()

	p, ok := limiter.Policy(PolicyLogin)
	require.True(t, ok)
	assert.Equal(t, 1, p.Max)

	res, err := limiter.Allow(ctx, PolicyLogin, "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, PolicyLogin, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// Policies keep separate counters for the same client.
	res, err = limiter.Allow(ctx, PolicyGeneral, "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	_, err = limiter.Allow(ctx, PolicyRegister, "203.0.113.1")
	assert.Error(t, err)
}
