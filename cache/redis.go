package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Redis shares cached values between bot replicas. Values are stored as JSON with SET EX,
// so expiry is enforced by the server.
type Redis[V any] struct {
	client *redis.Client
	prefix string
}

func NewRedis[V any](client *redis.Client, prefix string) *Redis[V] {
	return &Redis[V]{client: client, prefix: prefix}
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", opts.Addr)
	}
	return client, nil
}

func (r *Redis[V]) key(key string) string {
	return r.prefix + ":" + key
}

// Load treats any redis or decode failure as a miss.
func (r *Redis[V]) Load(ctx context.Context, key string) (V, bool) {
	var value V
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).WithField("key", r.key(key)).Warn("Failed to read cache")
		}
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		logrus.WithError(err).WithField("key", r.key(key)).Warn("Corrupted cache entry")
		return value, false
	}
	return value, true
}

func (r *Redis[V]) Store(ctx context.Context, key string, value V, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logrus.WithError(err).WithField("key", r.key(key)).Warn("Failed to encode cache entry")
		return
	}
	if err := r.client.Set(ctx, r.key(key), raw, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", r.key(key)).Warn("Failed to write cache")
	}
}

// Clear removes every key under the prefix.
func (r *Redis[V]) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logrus.WithError(err).WithField("prefix", r.prefix).Warn("Failed to scan cache keys")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).WithField("prefix", r.prefix).Warn("Failed to clear cache")
	}
}
