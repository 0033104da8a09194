package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/aman-zulfiqar/solana-amm/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisCache keeps a capped list of recent pool events.
type RedisCache struct {
	client    *redis.Client
	logger    *logrus.Logger
	maxRecent int64
}

func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger, maxRecent: constants.MaxRecentEvents}
}

// Record pushes ev onto the recent list.
func (r *RedisCache) Record(ctx context.Context, ev *models.PoolEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentEvents, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentEvents, 0, r.maxRecent-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache event: %w", err)
	}
	return nil
}

// GetRecentEvents returns up to limit events, newest first.
func (r *RedisCache) GetRecentEvents(ctx context.Context, limit int64) ([]*models.PoolEvent, error) {
	if limit <= 0 {
		return []*models.PoolEvent{}, nil
	}
	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentEvents, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent events: %w", err)
	}

	out := make([]*models.PoolEvent, 0, len(vals))
	for _, v := range vals {
		var ev models.PoolEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			r.logger.WithError(err).Warn("skipping malformed cached event")
			continue
		}
		out = append(out, &ev)
	}
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close is a no-op: the client is owned by the caller.
func (r *RedisCache) Close() error { return nil }
