package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/juno/internal/league"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "juno"

// RedisCache handles caching and fast state storage
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewFromClient(client, ttl), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// SnapshotKey is the cache key of the latest snapshot of a period.
func SnapshotKey(leagueID string, period league.Period) string {
	return fmt.Sprintf("%s:snapshot:%s:%s", keyPrefix, leagueID, period)
}

// GetSnapshot returns the cached snapshot, or nil on a miss.
func (rc *RedisCache) GetSnapshot(ctx context.Context, leagueID string, period league.Period) (*league.Snapshot, error) {
	raw, err := rc.client.Get(ctx, SnapshotKey(leagueID, period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached snapshot: %w", err)
	}

	var snap league.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snap, nil
}

// SetSnapshot caches a snapshot for the configured TTL.
func (rc *RedisCache) SetSnapshot(ctx context.Context, snap *league.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return rc.client.Set(ctx, SnapshotKey(snap.LeagueID, snap.Period), data, rc.ttl).Err()
}
