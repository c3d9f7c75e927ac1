package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefix for stored preferences
const keyPrefix = "pref:"

// RedisStore keeps preferences in Redis so they survive restarts and are shared
// between gateway replicas. Expiry is delegated to Redis TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(addr, password string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Preference, error) {
	data, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode preference for session %s: %w", sessionID, err)
	}
	return p, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, pref Preference) error {
	data, err := encode(pref)
	if err != nil {
		return err
	}
	// A zero TTL makes the key persistent.
	return s.client.Set(ctx, redisKey(sessionID), data, s.ttl).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(sessionID string) string {
	return keyPrefix + sessionID
}
