package cache

import (
	"context"
	"time"

	"github.com/coocood/freecache"
	"github.com/redis/go-redis/v9"
	"github.com/stashbin/stashbin/internal/config"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "stashbin:"

type Cacher interface {
	Get(key string, value interface{}) error
	Set(key string, value interface{}, expiration time.Duration) error
	Delete(keys ...string) error
}

// NewCache returns a redis-backed cache when an address is configured, an
// in-process freecache otherwise.
func NewCache(ctx context.Context, conf *config.CacheConfig) Cacher {
	if conf.RedisAddr == "" {
		return NewMemoryCache(conf.MaxSize)
	}
	return NewRedisCache(ctx, redis.NewClient(&redis.Options{
		Addr:            conf.RedisAddr,
		Password:        conf.RedisPass,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        10,
		MinIdleConns:    5,
		MaxIdleConns:    10,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnMaxLifetime: 1 * time.Hour,
	}))
}

type MemoryCache struct {
	cache *freecache.Cache
}

func NewMemoryCache(size int) *MemoryCache {
	return &MemoryCache{cache: freecache.NewCache(size)}
}

func (m *MemoryCache) Get(key string, value interface{}) error {
	data, err := m.cache.Get([]byte(keyPrefix + key))
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(data, value)
}

func (m *MemoryCache) Set(key string, value interface{}, expiration time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return m.cache.Set([]byte(keyPrefix+key), data, int(expiration.Seconds()))
}

func (m *MemoryCache) Delete(keys ...string) error {
	for _, key := range keys {
		m.cache.Del([]byte(keyPrefix + key))
	}
	return nil
}

type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(ctx context.Context, client *redis.Client) *RedisCache {
	return &RedisCache{client: client, ctx: ctx}
}

func (r *RedisCache) Get(key string, value interface{}) error {
	data, err := r.client.Get(r.ctx, keyPrefix+key).Bytes()
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(data, value)
}

func (r *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(r.ctx, keyPrefix+key, data, expiration).Err()
}

func (r *RedisCache) Delete(keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = keyPrefix + key
	}
	return r.client.Del(r.ctx, prefixed...).Err()
}
