package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "bracketpool:leaderboard"
	leaderboardTTL = 5 * time.Minute
)

// ErrCacheMiss reports that no cached leaderboard is available.
var ErrCacheMiss = errors.New("leaderboard not in cache")

// LeaderboardCache держит собранную таблицу лидеров в Redis. Таблица читается на
// каждом просмотре, а меняется только при пересчёте очков, поэтому её
// выгодно держать в Redis и сбрасывать при каждом Recompute.
type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(redisURL string) (*LeaderboardCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return &LeaderboardCache{client: redis.NewClient(opts)}, nil
}

func (c *LeaderboardCache) Get(ctx context.Context) ([]models.LeaderboardEntry, error) {
	payload, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read leaderboard from cache: %w", err)
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		// Повреждённое значение равносильно промаху.
		return nil, ErrCacheMiss
	}
	return entries, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, entries []models.LeaderboardEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard for cache: %w", err)
	}
	if err := c.client.Set(ctx, leaderboardKey, payload, leaderboardTTL).Err(); err != nil {
		return fmt.Errorf("failed to store leaderboard in cache: %w", err)
	}
	return nil
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, leaderboardKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}

func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}
