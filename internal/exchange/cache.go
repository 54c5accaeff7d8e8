package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Tyrowin/exchange-chat/internal/metrics"
)

const cacheKeyPrefix = "exchange:rates:"

// Cache stores encoded records by key. Get reports a miss with ok == false.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &RedisCache{client: client}, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachingFetcher serves past dates from a Cache and falls through to next
// on a miss. Today's date is never cached because its rates may still move.
type CachingFetcher struct {
	next    Fetcher
	cache   Cache
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCachingFetcher wraps next with cache. A ttl of zero keeps entries forever.
func NewCachingFetcher(next Fetcher, cache Cache, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *CachingFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingFetcher{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

// Fetch implements Fetcher. Cache errors are logged and treated as misses.
func (f *CachingFetcher) Fetch(ctx context.Context, date string) (RawExchangeRecord, error) {
	if !f.cacheable(date) {
		return f.next.Fetch(ctx, date)
	}

	key := cacheKeyPrefix + date
	if raw, ok, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warn("Exchange cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var record RawExchangeRecord
		if err := json.Unmarshal(raw, &record); err == nil {
			f.metrics.ObserveFetch(metrics.OutcomeCached, 0)
			return record, nil
		}
		f.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	}

	record, err := f.next.Fetch(ctx, date)
	if err != nil {
		return RawExchangeRecord{}, err
	}

	if raw, err := json.Marshal(record); err == nil {
		if err := f.cache.Set(ctx, key, raw, f.ttl); err != nil {
			f.logger.Warn("Exchange cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return record, nil
}

func (f *CachingFetcher) cacheable(date string) bool {
	now := f.now()
	day, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.Before(today)
}
