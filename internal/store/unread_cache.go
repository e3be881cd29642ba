package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadCountTTL = 24 * time.Hour

// UnreadCache mirrors per-person unread alert counts in Redis. Every write
// path that touches alerts must sync the count for the affected person
// immediately, so cache and store stay consistent at operation granularity.
type UnreadCache struct {
	client *redis.Client
}

func NewUnreadCache(client *redis.Client) *UnreadCache {
	return &UnreadCache{client: client}
}

func unreadKey(personID int64) string {
	return fmt.Sprintf("alerts:unread:%d", personID)
}

// Set stores the authoritative unread count for a person.
func (c *UnreadCache) Set(ctx context.Context, personID int64, count int) error {
	return c.client.Set(ctx, unreadKey(personID), count, unreadCountTTL).Err()
}

// Get returns the cached unread count. The second return is false on a cache
// miss; callers fall back to the store and re-sync.
func (c *UnreadCache) Get(ctx context.Context, personID int64) (int, bool, error) {
	val, err := c.client.Get(ctx, unreadKey(personID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}
