package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client the cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedRateProvider is a read-through Redis cache in front of another provider.
// Cache failures degrade to the source provider.
type CachedRateProvider struct {
	source RateProvider
	redis  RedisClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedRateProvider(source RateProvider, client RedisClient, ttl time.Duration, logger *slog.Logger) *CachedRateProvider {
	return &CachedRateProvider{
		source: source,
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func (p *CachedRateProvider) Rate(ctx context.Context, base, quote string, on time.Time) (float64, error) {
	key := cacheKey(base, quote, on)

	cached, err := p.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		if rate, parseErr := strconv.ParseFloat(cached, 64); parseErr == nil {
			return rate, nil
		}
		p.logger.WarnContext(ctx, "discarding malformed cached rate", "key", key, "value", cached)
	case errors.Is(err, redis.Nil):
	default:
		p.logger.WarnContext(ctx, "rate cache read failed", "error", err, "key", key)
	}

	rate, err := p.source.Rate(ctx, base, quote, on)
	if err != nil {
		return 0, err
	}

	value := strconv.FormatFloat(rate, 'f', -1, 64)
	if err := p.redis.Set(ctx, key, value, p.ttl).Err(); err != nil {
		p.logger.WarnContext(ctx, "rate cache write failed", "error", err, "key", key)
	}
	return rate, nil
}

func cacheKey(base, quote string, on time.Time) string {
	return fmt.Sprintf("fx:%s:%s", pairKey(base, quote), on.Format(time.DateOnly))
}
