package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/prperemyshlev/spotlight-api/pkg/database"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Rate limit policy names
const (
	PolicyGeneral  = "general"
	PolicyLogin    = "login"
	PolicyRegister = "register"
)

// Policy allows Max requests per Window for one route group
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}

// RateResult is the outcome of one rate limit check
type RateResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateStore counts requests per key
type RateStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateResult, error)
}

// RateLimiter applies named policies to client keys
type RateLimiter struct {
	store    RateStore
	policies map[string]Policy
}

// NewRateLimiter creates a limiter over store with the given policy table
func NewRateLimiter(store RateStore, policies ...Policy) *RateLimiter {
	table := make(map[string]Policy, len(policies))
	for _, p := range policies {
		table[p.Name] = p
	}
	return &RateLimiter{store: store, policies: table}
}

// Policy returns the named policy
func (r *RateLimiter) Policy(name string) (Policy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// Allow checks one request of client against the named policy
func (r *RateLimiter) Allow(ctx context.Context, policy, client string) (RateResult, error) {
	p, ok := r.policies[policy]
	if !ok {
		return RateResult{}, fmt.Errorf("unknown rate limit policy %q", policy)
	}

	return r.store.Allow(ctx, fmt.Sprintf("%s:%s", p.Name, client), p.Max, p.Window)
}

// RedisRateStore is a sliding window log shared by every instance
type RedisRateStore struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRedisRateStore creates a new Redis rate store
func NewRedisRateStore(redis *database.Redis) *RedisRateStore {
	return &RedisRateStore{redis: redis, now: time.Now}
}

// Allow records the request if it fits in the window
func (s *RedisRateStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateResult, error) {
	now := s.now()
	windowStart := now.Add(-window)
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	result := RateResult{Limit: limit}

	// Remove entries older than the window
	err := s.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli())).Err()
	if err != nil {
		return result, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := s.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return result, fmt.Errorf("failed to count entries: %w", err)
	}

	if count >= int64(limit) {
		result.RetryAfter = window
		oldest, err := s.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			oldestTime := time.UnixMilli(int64(oldest[0].Score))
			result.RetryAfter = max(oldestTime.Add(window).Sub(now), time.Second)
		}
		return result, nil
	}

	member := fmt.Sprintf("%d-%d", now.UnixNano(), count)
	_, err = s.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		pipe.Expire(ctx, redisKey, window+time.Minute)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to add entry: %w", err)
	}

	result.Allowed = true
	result.Remaining = limit - int(count) - 1
	return result, nil
}

const memoryPruneInterval = time.Minute

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	window   time.Duration
}

// MemoryRateStore keeps a token bucket per key in process memory
type MemoryRateStore struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	lastPrune time.Time
	now       func() time.Time
}

// NewMemoryRateStore creates a new in-memory rate store
func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Allow takes one token from the key's bucket. The bucket holds limit tokens and
// refills completely over window.
func (s *MemoryRateStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.prune(now)

	entry, ok := s.entries[key]
	if !ok {
		every := window / time.Duration(limit)
		entry = &memoryEntry{limiter: rate.NewLimiter(rate.Every(every), limit), window: window}
		s.entries[key] = entry
	}
	entry.lastSeen = now

	result := RateResult{Limit: limit}

	if entry.limiter.AllowN(now, 1) {
		result.Allowed = true
		result.Remaining = int(math.Floor(entry.limiter.TokensAt(now)))
		return result, nil
	}

	reservation := entry.limiter.ReserveN(now, 1)
	result.RetryAfter = max(reservation.DelayFrom(now), time.Second)
	reservation.CancelAt(now)

	return result, nil
}

func (s *MemoryRateStore) prune(now time.Time) {
	if now.Sub(s.lastPrune) < memoryPruneInterval {
		return
	}
	s.lastPrune = now

	for key, entry := range s.entries {
		if now.Sub(entry.lastSeen) > entry.window {
			delete(s.entries, key)
		}
	}
}
