// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"petserver/internal/feature/auth/domain/entity"
	"petserver/internal/feature/auth/usecase"
)

const (
	defaultTTL       = 5 * time.Minute
	defaultNamespace = "users"
	scanBatch        = 200
)

// CachingUserRepository decorates a UserRepository with Redis caching.
// Reads are served from Redis when possible; writes go to the inner
// repository first and then invalidate the cached entry.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// Compile-time check to ensure CachingUserRepository implements UserRepository.
var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "users".
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// FindByEmail checks the cache first and falls back to the inner repository.
// Misses (ErrUserNotFound) are not cached.
func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if c.rdb == nil {
		return c.inner.FindByEmail(ctx, email)
	}

	key := c.cacheKey(email)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var u entity.User
		if err := json.Unmarshal(b, &u); err == nil && u.Email == email {
			return &u, nil
		}
		// Delete corrupted or foreign cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	u, err := c.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(u); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return u, nil
}

// Upsert writes through to the inner repository and invalidates the cached user.
func (c *CachingUserRepository) Upsert(ctx context.Context, patch *entity.User) error {
	if err := c.inner.Upsert(ctx, patch); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	// A stale entry would hide the new session token, so a failed delete is an error.
	return c.rdb.Del(ctx, c.cacheKey(patch.Email)).Err()
}

// Reset clears the inner repository and every cached user.
func (c *CachingUserRepository) Reset(ctx context.Context) error {
	if err := c.inner.Reset(ctx); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	return c.deleteByPattern(ctx, c.namespace+":*")
}

// cacheKey generates the cache key for an email.
// The email is hashed so distinct emails never share a key and no glob characters reach SCAN.
func (c *CachingUserRepository) cacheKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return c.namespace + ":" + hex.EncodeToString(sum[:])
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingUserRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
