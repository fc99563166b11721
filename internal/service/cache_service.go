package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

const (
	grantKeyPrefix  = "rbac:user:"
	defaultGrantTTL = 5 * time.Minute
)

// CacheStore persists JSON payloads under string keys. Get reports appErrors.ErrCacheMiss for
// absent keys.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

func grantKey(userID int64) string {
	return fmt.Sprintf("%s%d", grantKeyPrefix, userID)
}

// GrantCache keeps resolved role grants per user. Store failures are logged and treated as
// misses so authorization always falls back to the database.
type GrantCache struct {
	store   CacheStore
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewGrantCache constructs a grant cache. A nil store disables caching.
func NewGrantCache(store CacheStore, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *GrantCache {
	if ttl <= 0 {
		ttl = defaultGrantTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrantCache{store: store, ttl: ttl, metrics: metrics, logger: logger}
}

// Enabled reports whether grants are cached at all.
func (c *GrantCache) Enabled() bool {
	return c != nil && c.store != nil
}

// Load returns the cached grant of userID, if any.
func (c *GrantCache) Load(ctx context.Context, userID int64) (*models.RoleGrant, bool) {
	if !c.Enabled() {
		return nil, false
	}
	start := time.Now()
	var grant models.RoleGrant
	err := c.store.Get(ctx, grantKey(userID), &grant)
	switch {
	case err == nil:
		c.metrics.RecordGrantLookup(GrantLookupHit, time.Since(start))
		return &grant, true
	case errors.Is(err, appErrors.ErrCacheMiss):
		c.metrics.RecordGrantLookup(GrantLookupMiss, time.Since(start))
	default:
		c.metrics.RecordGrantLookup(GrantLookupError, time.Since(start))
		c.logger.Warn("grant cache read failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return nil, false
}

// Save caches grant until the TTL elapses.
func (c *GrantCache) Save(ctx context.Context, grant *models.RoleGrant) {
	if !c.Enabled() || grant == nil {
		return
	}
	start := time.Now()
	err := c.store.Set(ctx, grantKey(grant.UserID), grant, c.ttl)
	c.metrics.ObserveGrantWrite("set", time.Since(start))
	if err != nil {
		c.logger.Warn("grant cache write failed", zap.Int64("user_id", grant.UserID), zap.Error(err))
	}
}

// Forget evicts the grants of the given users.
func (c *GrantCache) Forget(ctx context.Context, userIDs ...int64) {
	if !c.Enabled() || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = grantKey(id)
	}
	start := time.Now()
	err := c.store.Delete(ctx, keys...)
	c.metrics.ObserveGrantWrite("delete", time.Since(start))
	if err != nil {
		c.logger.Warn("grant cache eviction failed", zap.Int64s("user_ids", userIDs), zap.Error(err))
	}
}

// Flush evicts every cached grant. The role/permission matrix changed, so any user may be affected.
func (c *GrantCache) Flush(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	start := time.Now()
	err := c.store.DeleteByPattern(ctx, grantKeyPrefix+"*")
	c.metrics.ObserveGrantWrite("flush", time.Since(start))
	if err != nil {
		c.logger.Warn("grant cache flush failed", zap.Error(err))
	}
}
