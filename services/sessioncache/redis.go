// Package sessioncache provides token→principal caches backing
// session.Cache: a Redis implementation for deployments and an in-memory
// one for development and tests.
package sessioncache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/campusgate/campusgate/core"
	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/session"
)

type redisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

var _ session.Cache = (*redisCache)(nil)

func NewRedis(conf *core.Config) session.Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	return &redisCache{
		client: client,
		ttl:    conf.Session.CacheTTL,
		prefix: "principal:",
	}
}

// key hashes the bearer token so raw credentials never land in Redis.
func (c *redisCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *redisCache) Get(ctx context.Context, token string) (auth.Principal, error) {
	data, err := c.client.Get(ctx, c.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Principal{}, session.ErrCacheMiss
		}
		return auth.Principal{}, errors.Wrap(err, "redis get")
	}
	var principal auth.Principal
	if err := json.Unmarshal([]byte(data), &principal); err != nil {
		// a corrupt entry behaves like a miss; hydrate will overwrite it
		return auth.Principal{}, session.ErrCacheMiss
	}
	return principal, nil
}

func (c *redisCache) Save(ctx context.Context, token string, principal auth.Principal) error {
	data, err := json.Marshal(principal)
	if err != nil {
		return errors.Wrap(err, "marshal principal")
	}
	return c.client.Set(ctx, c.key(token), data, c.ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, token string) error {
	return c.client.Del(ctx, c.key(token)).Err()
}
