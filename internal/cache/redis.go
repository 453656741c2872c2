package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
)

const defaultRedisOpTimeout = 2 * time.Second

type RedisCache struct {
	client    *redis.Client
	opTimeout time.Duration
	logger    *logrus.Entry
}

var _ Cache = (*RedisCache)(nil)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects and pings once. The returned cache keeps working
// when the server goes away later: every operation degrades to a miss.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       opts.Addr,
		Password:   opts.Password,
		DB:         opts.DB,
		MaxRetries: 1,
	})

	c := &RedisCache{
		client:    client,
		opTimeout: defaultRedisOpTimeout,
		logger: logrus.WithFields(logrus.Fields{
			"from": "redis_cache",
		}),
	}

	if err := c.Ping(ctx); err != nil {
		client.Close()
		err = fmt.Errorf(
			"%w, cannot connect to redis at %s, %w",
			qotd_errors.ErrComponentStart,
			opts.Addr,
			err,
		)
		c.logger.Warn(err)
		return nil, err
	}

	c.logger.Infof("connected to redis at %s", opts.Addr)
	return c, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debugf("cache get %s failed, %v", key, err)
		}
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Debugf("cache set %s failed, %v", key, err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Debugf("cache delete %s failed, %v", key, err)
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
