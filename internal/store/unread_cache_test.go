package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *UnreadCache {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewUnreadCache(client)
}

func TestUnreadCache_SetGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 42, 7))

	count, hit, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, count)
}

func TestUnreadCache_Miss(t *testing.T) {
	cache := newTestCache(t)

	count, hit, err := cache.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, count)
}

func TestUnreadCache_Overwrite(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, 2))
	require.NoError(t, cache.Set(ctx, 1, 0))

	count, hit, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Zero(t, count)
}

func TestUnreadCache_SetUsesDayTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewUnreadCache(client)

	mock.ExpectSet("alerts:unread:42", 7, 24*time.Hour).SetVal("OK")

	require.NoError(t, cache.Set(context.Background(), 42, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCache_GetPropagatesRedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewUnreadCache(client)

	mock.ExpectGet("alerts:unread:42").SetErr(fmt.Errorf("connection refused"))

	_, hit, err := cache.Get(context.Background(), 42)
	require.Error(t, err)
	assert.False(t, hit)
}
