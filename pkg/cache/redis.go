package cache

import (
	"context"
	stderrors "errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// RedisConfig configures a [RedisCache].
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key, for sharing one Redis between deployments.
	Prefix string
}

// RedisCache stores artifacts in Redis with native key expiry. Network
// failures are retried with backoff.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and pings it.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	c := &RedisCache{client: client, prefix: cfg.Prefix}
	if err := c.retry(ctx, func() error { return client.Ping(ctx).Err() }); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, stderrors.Join(ErrUnavailable, err), "connect to redis at %s", cfg.Addr)
	}
	return c, nil
}

// Get returns the stored value; redis.Nil is a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.retry(ctx, func() error {
		var err error
		data, err = c.client.Get(ctx, c.prefix+key).Bytes()
		return err
	})
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "redis get %s", key)
	}
	return data, true, nil
}

// Set stores data; a zero ttl keeps it until evicted.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.retry(ctx, func() error {
		return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "redis set %s", key)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.retry(ctx, func() error {
		return c.client.Del(ctx, c.prefix+key).Err()
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "redis delete %s", key)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// retry retries fn on network errors. redis.Nil and other replies are
// returned as they are.
func (c *RedisCache) retry(ctx context.Context, fn func() error) error {
	err := RetryWithBackoff(ctx, func() error {
		err := fn()
		var netErr net.Error
		if stderrors.As(err, &netErr) {
			return Retryable(err)
		}
		return err
	})
	var re *RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}

var _ Cache = (*RedisCache)(nil)
