package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kindredmatch/kindred/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForPopularity generates the Redis key for an interest token's
// verification count.
func (c *RedisCache) KeyForPopularity(interestID uint64) string {
	return fmt.Sprintf("popularity:count:%d", interestID)
}

// UpdatePopularity overwrites the cached count for an interest token.
// Always refreshes TTL: tokens being verified right now are hot.
func (c *RedisCache) UpdatePopularity(ctx context.Context, interestID, count uint64) error {
	key := c.KeyForPopularity(interestID)
	return c.Client.Set(ctx, key, strconv.FormatUint(count, 10), time.Hour).Err()
}

// GetPopularity returns the cached count for an interest token.
// The bool reports a cache hit; a hit refreshes the TTL.
func (c *RedisCache) GetPopularity(ctx context.Context, interestID uint64) (uint64, bool, error) {
	key := c.KeyForPopularity(interestID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, time.Hour).Err()
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat corrupt entries as a miss
	}
	return n, true, nil
}
