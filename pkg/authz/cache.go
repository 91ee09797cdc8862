package authz

import (
	"context"
	"log/slog"
	"time"

	"medgate/pkg/database"
)

const (
	rolePermsKeyPrefix = "authz:role:"
	userPermsKeyPrefix = "authz:user:"
	permsKeySuffix     = ":perms"
)

// PermissionCache holds effective permission sets in Redis, keyed by role or
// user ID. It is the only derived state in the system: invalidated on any
// grant/revoke and recomputed lazily on the next read. All methods are
// nil-safe so services work without Redis.
type PermissionCache struct {
	redis *database.Redis
	ttl   time.Duration
}

// NewPermissionCache creates a cache with the given TTL. A zero TTL defaults
// to 15 minutes.
func NewPermissionCache(redis *database.Redis, ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PermissionCache{redis: redis, ttl: ttl}
}

// GetRoleSet returns the cached effective permission set for a role.
func (c *PermissionCache) GetRoleSet(ctx context.Context, roleID string) (PermissionSet, bool) {
	return c.get(ctx, rolePermsKeyPrefix+roleID+permsKeySuffix)
}

// SetRoleSet stores the effective permission set for a role.
func (c *PermissionCache) SetRoleSet(ctx context.Context, roleID string, set PermissionSet) {
	c.set(ctx, rolePermsKeyPrefix+roleID+permsKeySuffix, set)
}

// InvalidateRole drops the cached set for a role. Called on every
// grant/revoke touching the role; descendant roles inherit through it, so
// their entries are dropped by the caller as well.
func (c *PermissionCache) InvalidateRole(ctx context.Context, roleID string) {
	c.invalidate(ctx, rolePermsKeyPrefix+roleID+permsKeySuffix)
}

// GetUserSet returns the cached effective permission set for a user.
func (c *PermissionCache) GetUserSet(ctx context.Context, userID string) (PermissionSet, bool) {
	return c.get(ctx, userPermsKeyPrefix+userID+permsKeySuffix)
}

// SetUserSet stores the effective permission set for a user.
func (c *PermissionCache) SetUserSet(ctx context.Context, userID string, set PermissionSet) {
	c.set(ctx, userPermsKeyPrefix+userID+permsKeySuffix, set)
}

// InvalidateUser drops the cached set for a user.
func (c *PermissionCache) InvalidateUser(ctx context.Context, userID string) {
	c.invalidate(ctx, userPermsKeyPrefix+userID+permsKeySuffix)
}

// InvalidateAllUsers drops every cached user set. Used after bulk role
// mutations where the affected user population is unknown.
func (c *PermissionCache) InvalidateAllUsers(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.DeleteByPattern(ctx, userPermsKeyPrefix+"*"); err != nil {
		slog.Warn("Failed to invalidate user permission caches", "error", err)
	}
}

func (c *PermissionCache) get(ctx context.Context, key string) (PermissionSet, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}
	var names []string
	if err := c.redis.GetJSON(ctx, key, &names); err != nil {
		if !database.IsCacheMiss(err) {
			slog.Warn("Permission cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return NewPermissionSet(names...), true
}

func (c *PermissionCache) set(ctx context.Context, key string, set PermissionSet) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.SetJSON(ctx, key, set.Names(), c.ttl); err != nil {
		slog.Warn("Permission cache write failed", "key", key, "error", err)
	}
}

func (c *PermissionCache) invalidate(ctx context.Context, key string) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Delete(ctx, key); err != nil {
		slog.Warn("Permission cache invalidation failed", "key", key, "error", err)
	}
}
