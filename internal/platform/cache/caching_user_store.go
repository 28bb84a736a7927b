// Package cache provides caching implementations for store interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"users_backend/internal/feature/users/domain/entity"
	"users_backend/internal/feature/users/usecase"
)

const (
	defaultTTL       = 10 * time.Minute
	defaultNamespace = "users"
)

// CachingUserStore decorates a UserStore with Redis caching of email index lookups.
// Users are never deleted or renamed, so a cached non-empty result cannot go stale.
// Empty results are never cached. Redis failures are logged and otherwise ignored.
type CachingUserStore struct {
	inner     usecase.UserStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.UserStore = (*CachingUserStore)(nil)

// NewCachingUserStore decorates a UserStore with Redis caching.
// If ttl is 0, it defaults to 10 minutes. If namespace is empty, it uses "users".
// A nil rdb disables caching entirely.
func NewCachingUserStore(rdb *redis.Client, ttl time.Duration, inner usecase.UserStore, namespace string) *CachingUserStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingUserStore{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Put writes through to the underlying store, then primes the cache for the new email.
func (c *CachingUserStore) Put(ctx context.Context, u *entity.User) error {
	if err := c.inner.Put(ctx, u); err != nil {
		return err
	}
	if c.rdb != nil {
		c.store(ctx, c.cacheKey(usecase.AttrEmail, u.Email), []entity.User{*u})
	}
	return nil
}

// QueryByIndex checks the cache first, then falls back to the underlying store.
func (c *CachingUserStore) QueryByIndex(ctx context.Context, attribute, value string) ([]entity.User, error) {
	if c.rdb == nil {
		return c.inner.QueryByIndex(ctx, attribute, value)
	}

	key := c.cacheKey(attribute, value)

	// 1) Check cache
	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil && len(b) > 0:
		var out []entity.User
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	case err != nil && !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
	}

	// 2) Fallback to the store
	out, err := c.inner.QueryByIndex(ctx, attribute, value)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if len(out) > 0 {
		c.store(ctx, key, out)
	}
	return out, nil
}

// ScanWithFilter is never cached; it is the path taken when the index cannot be trusted.
func (c *CachingUserStore) ScanWithFilter(ctx context.Context, attribute, value string) ([]entity.User, error) {
	return c.inner.ScanWithFilter(ctx, attribute, value)
}

func (c *CachingUserStore) store(ctx context.Context, key string, users []entity.User) {
	b, err := json.Marshal(users)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("user cache write failed")
	}
}

// cacheKey generates a cache key for a lookup.
func (c *CachingUserStore) cacheKey(attribute, value string) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, safe(attribute), safe(value))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
