package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/redis/rueidis"
)

var ErrCacheMiss = errors.New("profile cache miss")

// NameCache stores resolved display names.
type NameCache interface {
	Get(ctx context.Context, id string) (string, error)
	Set(ctx context.Context, id, name string) error
}

type RedisNameCache struct {
	client rueidis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisNameCache(client rueidis.Client, prefix string, ttl time.Duration) *RedisNameCache {
	return &RedisNameCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get reads through the rueidis client-side cache, so repeated lookups of a
// hot profile do not reach the server until the ttl expires.
func (r *RedisNameCache) Get(ctx context.Context, id string) (string, error) {
	cmd := r.client.B().Get().Key(r.key(id)).Cache()
	name, err := r.client.DoCache(ctx, cmd, r.ttl).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return name, nil
}

func (r *RedisNameCache) Set(ctx context.Context, id, name string) error {
	cmd := r.client.B().Set().Key(r.key(id)).Value(name).ExSeconds(int64(r.ttl / time.Second)).Build()
	return r.client.Do(ctx, cmd).Error()
}

func (r *RedisNameCache) key(id string) string {
	return r.prefix + id
}
