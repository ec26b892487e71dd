// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"chatapp/internal/feature/auth/domain/entity"
	"chatapp/internal/feature/auth/usecase"
)

// CachingUserRepository decorates a UserRepository with Redis caching of
// ID lookups, which is what every authenticated request performs.
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
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create stores the user; nothing is cached until it is read by ID.
func (c *CachingUserRepository) Create(ctx context.Context, u *entity.User) error {
	return c.inner.Create(ctx, u)
}

// FindByEmail is not cached: it backs login and signup, where staleness would hurt.
func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return c.inner.FindByEmail(ctx, email)
}

// FindByID retrieves a user, checking cache first then falling back to the inner repository.
func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.User
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the inner repository
	out, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Update writes through to the inner repository and invalidates the cached entry.
func (c *CachingUserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := c.inner.Update(ctx, u); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, c.cacheKey(u.ID)).Err(); err != nil {
		// The entry still expires after ttl
		slog.Warn("failed to invalidate user cache", "user_id", u.ID, "error", err)
	}
	return nil
}

// cacheKey generates a cache key for a user ID.
func (c *CachingUserRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(id))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
