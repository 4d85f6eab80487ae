package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/irequest/internal/repository"
)

const countersTTL = 30 * time.Second

// Counters caches the dashboard aggregates and per-user unread notification
// counts in redis. A nil Counters (or one built without a redis client)
// degrades to cache misses, so callers always fall back to the database.
type Counters struct {
	rdb *redis.Client
}

// NewCounters wraps the redis client; rdb may be nil.
func NewCounters(rdb *redis.Client) *Counters {
	return &Counters{rdb: rdb}
}

func unreadKey(userID uuid.UUID) string {
	return fmt.Sprintf("irequest:unread:%s", userID)
}

const dashboardKey = "irequest:dashboard"

// GetUnread returns the cached unread count, if present.
func (c *Counters) GetUnread(ctx context.Context, userID uuid.UUID) (int64, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	n, err := c.rdb.Get(ctx, unreadKey(userID)).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetUnread stores the unread count with a short TTL.
func (c *Counters) SetUnread(ctx context.Context, userID uuid.UUID, count int64) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Set(ctx, unreadKey(userID), count, countersTTL)
}

// InvalidateUnread drops the cached unread count after a write.
func (c *Counters) InvalidateUnread(ctx context.Context, userID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, unreadKey(userID))
}

// GetDashboard returns the cached dashboard aggregates, if present.
func (c *Counters) GetDashboard(ctx context.Context) (*repository.DashboardStats, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, dashboardKey).Bytes()
	if err != nil {
		return nil, false
	}
	var stats repository.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// SetDashboard stores the dashboard aggregates with a short TTL.
func (c *Counters) SetDashboard(ctx context.Context, stats *repository.DashboardStats) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, dashboardKey, raw, countersTTL)
}
