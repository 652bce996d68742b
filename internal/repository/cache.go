package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/models"
)

const (
	userOrdersPrefix = "user_orders:"
	defaultCacheTTL  = 5 * time.Minute
)

// RedisOrderCache implements OrderCache using Redis. Only the per-user order
// list is cached; single-order reads always hit the database.
type RedisOrderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisOrderCache creates a new Redis-based order cache.
func NewRedisOrderCache(cfg config.RedisConfig, logger zerolog.Logger) *RedisOrderCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "order-cache").Logger(),
	}
}

// GetByUserID retrieves cached orders for a user; (nil, nil) on a miss.
func (c *RedisOrderCache) GetByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	key := userOrdersPrefix + userID

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug().Str("user_id", userID).Msg("cache miss")
		return nil, nil
	}
	if err != nil {
		c.logger.Error().Err(err).Str("user_id", userID).Msg("cache get error")
		return nil, err
	}

	var orders []*models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("user_id", userID).Int("count", len(orders)).Msg("cache hit")
	return orders, nil
}

// SetByUserID caches a user's order list.
func (c *RedisOrderCache) SetByUserID(ctx context.Context, userID string, orders []*models.Order) error {
	key := userOrdersPrefix + userID

	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error().Err(err).Str("user_id", userID).Msg("cache set error")
		return err
	}

	return nil
}

// InvalidateByUserID removes a user's cached order list.
func (c *RedisOrderCache) InvalidateByUserID(ctx context.Context, userID string) error {
	key := userOrdersPrefix + userID

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error().Err(err).Str("user_id", userID).Msg("cache delete error")
		return err
	}

	return nil
}
