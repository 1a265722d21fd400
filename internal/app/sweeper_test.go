package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prperemyshlev/spotlight-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type sweepRecorder struct {
	repository.TokenRepository

	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (r *sweepRecorder) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, now)
	if r.err != nil {
		return 0, r.err
	}
	return 3, nil
}

func (r *sweepRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestTokenSweeper_RunsUntilCancelled(t *testing.T) {
	repo := &sweepRecorder{}
	core, logs := observer.New(zap.InfoLevel)
	sweeper := NewTokenSweeper(repo, 10*time.Millisecond, time.Hour, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	assert.NotZero(t, logs.FilterMessage("Expired refresh tokens deleted").Len())
}

func TestTokenSweeper_LogsFailures(t *testing.T) {
	repo := &sweepRecorder{err: errors.New("connection reset")}
	core, logs := observer.New(zap.InfoLevel)
	sweeper := NewTokenSweeper(repo, time.Hour, 30*24*time.Hour, zap.New(core))

	fixed := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return fixed }

	sweeper.sweep(context.Background())

	require.Equal(t, 1, repo.count())
	assert.Equal(t, fixed.Add(-30*24*time.Hour), repo.calls[0])
	assert.Equal(t, 1, logs.FilterMessage("Failed to delete expired refresh tokens").Len())
}

type expiryRepo struct {
	repository.TokenRepository

	expiresAt map[string]time.Time
}

func (r *expiryRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, at := range r.expiresAt {
		if at.Before(now) {
			delete(r.expiresAt, id)
			n++
		}
	}
	return n, nil
}

func TestTokenSweeper_KeepsRecentlyExpiredTokens(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	repo := &expiryRepo{expiresAt: map[string]time.Time{
		"live":         fixed.Add(time.Hour),
		"just-expired": fixed.Add(-time.Minute),
		"stale":        fixed.Add(-31 * 24 * time.Hour),
	}}

	sweeper := NewTokenSweeper(repo, time.Hour, 30*24*time.Hour, zap.NewNop())
	sweeper.now = func() time.Time { return fixed }
	sweeper.sweep(context.Background())

	assert.Contains(t, repo.expiresAt, "live")
	assert.Contains(t, repo.expiresAt, "just-expired")
	assert.NotContains(t, repo.expiresAt, "stale")
}
