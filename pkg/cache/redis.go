package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions Redis 连接选项
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisClient 创建 Redis 客户端
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
}

// RedisCache is a Redis-based cache implementation.
type RedisCache struct {
	client  *redis.Client
	options *CacheOptions
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, opts *CacheOptions) *RedisCache {
	if opts == nil {
		opts = &CacheOptions{}
	}
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = 5 * time.Minute
	}
	if opts.Serializer == nil {
		opts.Serializer = &JSONSerializer{}
	}

	return &RedisCache{
		client:  client,
		options: opts,
	}
}

// makeKey 生成带前缀的键
func (c *RedisCache) makeKey(key string) string {
	if c.options.KeyPrefix != "" {
		return fmt.Sprintf("%s:%s", c.options.KeyPrefix, key)
	}
	return key
}

// GetObject 获取对象（自动反序列化）
func (c *RedisCache) GetObject(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.makeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return c.options.Serializer.Deserialize(data, dest)
}

// SetObject 设置对象（自动序列化）
func (c *RedisCache) SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := c.options.Serializer.Serialize(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = c.options.DefaultTTL
	}
	return c.client.Set(ctx, c.makeKey(key), data, ttl).Err()
}

// Delete deletes a key from cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.makeKey(key)).Err()
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
