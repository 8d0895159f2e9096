package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// redisKeyPrefix namespaces limiter counters in a shared Redis.
const redisKeyPrefix = "rate:"

// checkTimeout bounds how long Check may wait on Redis before failing open.
const checkTimeout = 500 * time.Millisecond

// RedisLimiter counts requests in Redis so one budget holds across all
// replicas. The window is approximated with INCR+EXPIRE: the counter does
// not slide, it expires after a full window without hits. When Redis is
// unreachable the limiter fails open and lets the request through.
type RedisLimiter struct {
	client *redis.Client
	config *Config
	log    *logrus.Logger
}

// NewRedisClient connects to the Redis at redisURL (redis://host:port/db)
// and verifies the connection before returning.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	// Set connection timeouts
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, config *Config, log *logrus.Logger) *RedisLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logrus.New()
	}
	return &RedisLimiter{
		client: client,
		config: config,
		log:    log,
	}
}

// Check reports whether clientID has exceeded its budget for the current
// window. Backend errors, including the per-call timeout, count as not
// limited.
func (l *RedisLimiter) Check(ctx context.Context, clientID string) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	key := redisKeyPrefix + clientID

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warnf("Rate limit check failed, failing open: %v", err)
		return false
	}

	return incr.Val() > int64(l.config.Limit)
}
