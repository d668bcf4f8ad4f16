package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream names.
const (
	StreamSnapshots = "fantasy.snapshots"
	StreamTrades    = "fantasy.trades"
)

// streamMaxLen caps each stream; trimming is approximate.
const streamMaxLen = 10000

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a publisher on an existing client.
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishSnapshot announces a refreshed league snapshot.
func (p *RedisStreamPublisher) PublishSnapshot(ctx context.Context, event interface{}) error {
	return p.publish(ctx, StreamSnapshots, event)
}

// PublishTrade announces a stored trade evaluation.
func (p *RedisStreamPublisher) PublishTrade(ctx context.Context, event interface{}) error {
	return p.publish(ctx, StreamTrades, event)
}

func (p *RedisStreamPublisher) publish(ctx context.Context, stream string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", stream, err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: Values(data, time.Now()),
	}).Err()
}

// Values builds the stream entry fields.
func Values(data []byte, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"data":      string(data),
		"timestamp": at.Unix(),
	}
}
