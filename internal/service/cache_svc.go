package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/pumpwatch/internal/model"
	"github.com/mathieu-neron/pumpwatch/pkg/hash"
)

// CacheService is a Redis cache-aside layer for rendered query views.
// Keys are scoped to one process instance and one snapshot generation.
type CacheService struct {
	rdb      *redis.Client
	ttl      time.Duration
	instance string
}

// NewCacheService connects to redisURL. An empty URL or a failed connection
// yields a CacheService whose operations are no-ops.
func NewCacheService(redisURL string, ttl time.Duration, log zerolog.Logger) *CacheService {
	log = log.With().Str("component", "cache").Logger()
	if redisURL == "" {
		log.Info().Msg("no redis URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("invalid redis URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{}
	}

	log.Info().Dur("ttl", ttl).Msg("redis connected, caching enabled")
	return NewCacheServiceWithClient(rdb, ttl)
}

// NewCacheServiceWithClient wraps an existing client. rdb may be nil.
func NewCacheServiceWithClient(rdb *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = DefaultRefreshInterval
	}
	return &CacheService{rdb: rdb, ttl: ttl, instance: uuid.NewString()}
}

// Instance returns the id that scopes this process's keys.
func (c *CacheService) Instance() string {
	if c == nil {
		return ""
	}
	return c.instance
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Enabled reports whether a Redis client is attached.
func (c *CacheService) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetView returns the cached view for (gen, q), or nil on a miss.
func (c *CacheService) GetView(ctx context.Context, gen uint64, q model.Query) (*model.View, error) {
	if !c.Enabled() {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, ViewKey(c.instance, gen, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v model.View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode cached view: %w", err)
	}
	return &v, nil
}

// SetView stores a view for (gen, q).
func (c *CacheService) SetView(ctx context.Context, gen uint64, q model.Query, v model.View) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, ViewKey(c.instance, gen, q), b, c.ttl).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// ViewKey builds the cache key of a query against one snapshot generation
// of one process. Generations restart at 1 in every process; the instance
// id keeps restarts and replicas apart. The search term is hashed.
func ViewKey(instance string, gen uint64, q model.Query) string {
	digest := hash.ShortHash(q.Search+"\x00"+string(q.Filter)+"\x00"+strconv.Itoa(q.Page), 16)
	return fmt.Sprintf("view:%s:%d:%s", instance, gen, digest)
}
