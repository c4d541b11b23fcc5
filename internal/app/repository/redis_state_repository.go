package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "storefront"

type redisStateRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStateRepository stores state under storefront:<namespace>:<key>.
// A zero ttl keeps values until they are deleted.
func NewRedisStateRepository(client redis.Cmdable, ttl time.Duration) StateRepository {
	return &redisStateRepository{client: client, ttl: ttl}
}

func redisStateKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", stateKeyPrefix, namespace, key)
}

func (r *redisStateRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	val, err := r.client.Get(ctx, redisStateKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}
	if err != nil {
		logger.Error("Failed to read client state from Redis", err, map[string]interface{}{
			"namespace": namespace,
			"key":       key,
		})
		return "", err
	}
	return val, nil
}

func (r *redisStateRepository) Set(ctx context.Context, namespace, key, value string) error {
	if err := r.client.Set(ctx, redisStateKey(namespace, key), value, r.ttl).Err(); err != nil {
		logger.Error("Failed to write client state to Redis", err, map[string]interface{}{
			"namespace": namespace,
			"key":       key,
		})
		return err
	}
	return nil
}

func (r *redisStateRepository) Delete(ctx context.Context, namespace, key string) error {
	if err := r.client.Del(ctx, redisStateKey(namespace, key)).Err(); err != nil {
		logger.Error("Failed to delete client state from Redis", err, map[string]interface{}{
			"namespace": namespace,
			"key":       key,
		})
		return err
	}
	return nil
}
