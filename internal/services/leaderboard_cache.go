package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"codetech/internal/config"
	contextutils "codetech/internal/utils"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache stores the computed leaderboard between requests
type LeaderboardCache interface {
	Get(ctx context.Context) ([]LeaderboardEntry, bool, error)
	Set(ctx context.Context, entries []LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

// RedisLeaderboardCache keeps the leaderboard as one JSON value with a TTL
type RedisLeaderboardCache struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisLeaderboardCache creates a cache over an existing client
func NewRedisLeaderboardCache(client redis.Cmdable, ttl time.Duration) *RedisLeaderboardCache {
	if ttl <= 0 {
		ttl = config.DefaultLeaderboardTTL
	}
	return &RedisLeaderboardCache{client: client, key: config.LeaderboardCacheKey, ttl: ttl}
}

// NewRedisClient builds a client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Get returns the cached leaderboard. A miss is reported with ok false and no error.
func (c *RedisLeaderboardCache) Get(ctx context.Context) ([]LeaderboardEntry, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, contextutils.WrapError(err, "failed to read leaderboard cache")
	}

	var entries []LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, contextutils.WrapError(err, "failed to decode leaderboard cache")
	}
	return entries, true, nil
}

// Set stores the leaderboard
func (c *RedisLeaderboardCache) Set(ctx context.Context, entries []LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return contextutils.WrapError(err, "failed to encode leaderboard cache")
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return contextutils.WrapError(err, "failed to write leaderboard cache")
	}
	return nil
}

// Invalidate drops the cached leaderboard
func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return contextutils.WrapError(err, "failed to invalidate leaderboard cache")
	}
	return nil
}

// NoopLeaderboardCache never stores anything
type NoopLeaderboardCache struct{}

// Get implements LeaderboardCache
func (NoopLeaderboardCache) Get(context.Context) ([]LeaderboardEntry, bool, error) { return nil, false, nil }

// Set implements LeaderboardCache
func (NoopLeaderboardCache) Set(context.Context, []LeaderboardEntry) error { return nil }

// Invalidate implements LeaderboardCache
func (NoopLeaderboardCache) Invalidate(context.Context) error { return nil }
