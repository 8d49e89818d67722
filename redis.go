package paranoia

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RecordCache is the contract the cache-aside wrapper needs from a cache.
type RecordCache[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (*T, error)
	Put(ctx context.Context, id ID, item *T) error
	Drop(ctx context.Context, id ID) error
}

// RedisCache is a Redis-backed record cache keyed by identity. Records are
// stored as JSON with a TTL.
type RedisCache[T any, ID comparable] struct {
	client     *redis.Client
	defaultTTL time.Duration
	keyFunc    func(ID) string
}

// NewRedisCache creates a Redis record cache.
func NewRedisCache[T any, ID comparable](client *redis.Client, defaultTTL time.Duration, keyFunc func(ID) string) *RedisCache[T, ID] {
	return &RedisCache[T, ID]{client: client, defaultTTL: defaultTTL, keyFunc: keyFunc}
}

func (r *RedisCache[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	data, err := r.client.Get(ctx, r.keyFunc(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	var item T
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *RedisCache[T, ID]) Put(ctx context.Context, id ID, item *T) error {
	if item == nil {
		return errors.New("item cannot be nil")
	}
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.keyFunc(id), data, r.defaultTTL).Err()
}

func (r *RedisCache[T, ID]) Drop(ctx context.Context, id ID) error {
	return r.client.Del(ctx, r.keyFunc(id)).Err()
}
