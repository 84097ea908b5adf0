package main

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// cityKey is the fixed key under which the last selected city is persisted.
const cityKey = "city"

const redisKeyPrefix = "skycast:"

// LocationStore is durable single-key string storage for the last viewed
// location. An absent value is reported as ErrLocationNotStored; any backend
// problem is wrapped in ErrStorage.
type LocationStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// RedisLocationStore keeps values under the skycast: key prefix.
type RedisLocationStore struct {
	client *redis.Client
}

// NewRedisLocationStore wraps an already connected client.
func NewRedisLocationStore(client *redis.Client) *RedisLocationStore {
	return &RedisLocationStore{
		client: client,
	}
}

func (s *RedisLocationStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrLocationNotStored
	}
	if err != nil {
		return "", failure(ErrStorage, "redis get %q: %w", key, err)
	}
	return val, nil
}

// Put stores value without expiry. Writing the same value twice is harmless.
func (s *RedisLocationStore) Put(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return failure(ErrStorage, "redis set %q: %w", key, err)
	}
	return nil
}
