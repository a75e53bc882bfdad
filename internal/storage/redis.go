package storage

import (
	"context"
	"errors"

	pkgredis "github.com/angelmondragon/storefront-cart/pkg/redis"
)

// RedisStore keeps values under the client's namespace, e.g. "storefront:cart".
// Keys never expire.
type RedisStore struct {
	client *pkgredis.Client
}

func NewRedisStore(client *pkgredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.client.Key(key))
	if errors.Is(err, pkgredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapBackend(err, "redis get")
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return wrapBackend(r.client.Set(ctx, r.client.Key(key), value, 0), "redis set")
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return wrapBackend(r.client.Del(ctx, r.client.Key(key)), "redis del")
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return wrapBackend(r.client.Ping(ctx), "redis ping")
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
