// Package cache holds read-through caches for fund views.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"myfunds/internal/domain"
	"myfunds/internal/logger"
)

const (
	fundKeyPrefix     = "fund:info:"
	holdingsKeyPrefix = "fund:holdings:"
)

// RedisFundCache stores fund views as JSON with a TTL.
// Cache errors are logged and treated as misses.
type RedisFundCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFundCache connects to redisURL and verifies the connection
func NewRedisFundCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisFundCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisFundCache{client: client, ttl: ttl}, nil
}

func (c *RedisFundCache) GetFund(ctx context.Context, fundCode string) (*domain.Fund, bool) {
	var fund domain.Fund
	if !c.get(ctx, fundKeyPrefix+fundCode, &fund) {
		return nil, false
	}
	return &fund, true
}

func (c *RedisFundCache) SetFund(ctx context.Context, fund *domain.Fund) {
	c.set(ctx, fundKeyPrefix+fund.FundCode, fund)
}

func (c *RedisFundCache) GetHoldings(ctx context.Context, fundCode string) ([]*domain.FundStock, bool) {
	var holdings []*domain.FundStock
	if !c.get(ctx, holdingsKeyPrefix+fundCode, &holdings) {
		return nil, false
	}
	if holdings == nil {
		holdings = []*domain.FundStock{}
	}
	return holdings, true
}

func (c *RedisFundCache) SetHoldings(ctx context.Context, fundCode string, holdings []*domain.FundStock) {
	c.set(ctx, holdingsKeyPrefix+fundCode, holdings)
}

// Close releases the redis connection pool
func (c *RedisFundCache) Close() error {
	return c.client.Close()
}

func (c *RedisFundCache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		logger.FromContext(ctx).Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.FromContext(ctx).Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *RedisFundCache) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(ctx).Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Nop is a FundCache that never hits
type Nop struct{}

func (Nop) GetFund(context.Context, string) (*domain.Fund, bool)            { return nil, false }
func (Nop) SetFund(context.Context, *domain.Fund)                           {}
func (Nop) GetHoldings(context.Context, string) ([]*domain.FundStock, bool) { return nil, false }
func (Nop) SetHoldings(context.Context, string, []*domain.FundStock)        {}
