package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"macroedge/internal/domain"

	"github.com/redis/go-redis/v9"
)

const SummaryKey = "bias:summary"

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SummaryCache stores the rendered bias summary under a single key.
type SummaryCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewSummaryCache(client RedisClient, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns nil without error on a miss.
func (c *SummaryCache) Get(ctx context.Context) (*domain.BiasSummary, error) {
	raw, err := c.client.Get(ctx, SummaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary domain.BiasSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *SummaryCache) Set(ctx context.Context, summary *domain.BiasSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, SummaryKey, data, c.ttl).Err()
}

func (c *SummaryCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, SummaryKey).Err()
}
