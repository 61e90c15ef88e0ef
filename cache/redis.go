package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/diagramflow/resilience"
)

// redisKeyPrefix namespaces entries so the store can share a database.
const redisKeyPrefix = "diagramflow:render:"

// RedisStoreConfig configures the Redis durable tier.
type RedisStoreConfig struct {
	// Addr is the Redis server address. Default: localhost:6379
	Addr string

	// Password is optional.
	Password string

	// DB selects the Redis database number.
	DB int

	// TTL expires entries server-side. Zero keeps them indefinitely,
	// matching the disk tier's behavior.
	TTL time.Duration

	// Retry wraps each operation. If nil, a default handler is used.
	Retry *resilience.Retry
}

// RedisStore is a durable tier backed by Redis, for deployments where the
// cache is shared across hosts. Drop-in alternative to DiskStore.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	retry  *resilience.Retry
}

// NewRedisStore creates a Redis-backed durable tier.
func NewRedisStore(config RedisStoreConfig) *RedisStore {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}
	if config.Retry == nil {
		// A missing key is a miss, not a fault worth retrying.
		config.Retry = resilience.NewRetry(resilience.RetryConfig{
			Jitter:  true,
			RetryIf: func(err error) bool { return err != nil && !errors.Is(err, redis.Nil) },
		})
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisStore{
		client: client,
		ttl:    config.TTL,
		retry:  config.Retry,
	}
}

// Get retrieves an entry. Connection failures count as misses; the caller
// re-renders rather than failing.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if ValidateKey(key) != nil {
		return nil, false
	}
	var data []byte
	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		b, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Put stores an entry with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.retry.Execute(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err()
	})
}

// Delete removes an entry. Idempotent.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.retry.Execute(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, redisKeyPrefix+key).Err()
	})
}

// Ping verifies connectivity, for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// IsMiss reports whether err is the Redis missing-key reply.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

var _ Store = (*RedisStore)(nil)
