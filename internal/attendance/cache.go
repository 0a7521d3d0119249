package attendance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const statsKeyPrefix = "rollcall:stats:"

// RedisStatsCache stores computed session stats as JSON blobs in Redis.
type RedisStatsCache struct {
	client *redis.Client
}

// NewRedisStatsCache creates a cache over an existing client.
func NewRedisStatsCache(client *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

// Get returns the cached stats for a session, or (nil, nil) on a miss.
func (c *RedisStatsCache) Get(ctx context.Context, sessionID string) (*SessionStats, error) {
	raw, err := c.client.Get(ctx, statsKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var stats SessionStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Set writes a session's stats with the given TTL.
func (c *RedisStatsCache) Set(ctx context.Context, sessionID string, stats SessionStats, ttl time.Duration) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKeyPrefix+sessionID, raw, ttl).Err()
}
