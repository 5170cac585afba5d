package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (UsersCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), "redis://"+mr.Addr()+"/0", "", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

// TestRedisCache_SetGet — запись читается обратно с TTL и префиксом по умолчанию.
func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	u := &models.User{ID: "u1", Username: "alice", Friends: []string{"u2"}}
	require.NoError(t, c.Set(ctx, u))

	require.True(t, mr.Exists("social:user:u1"))
	require.Equal(t, time.Minute, mr.TTL("social:user:u1"))

	got, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, []string{"u2"}, got.Friends)
}

// TestRedisCache_Miss — отсутствие ключа не является ошибкой.
func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	got, ok, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

// TestRedisCache_Expire — запись исчезает по TTL.
func TestRedisCache_Expire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.User{ID: "u1"}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, ok)
}

// TestRedisCache_Invalidate — удаляются все переданные ключи.
func TestRedisCache_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.User{ID: "a"}))
	require.NoError(t, c.Set(ctx, &models.User{ID: "b"}))

	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Invalidate(ctx, "a", "b"))

	require.False(t, mr.Exists("social:user:a"))
	require.False(t, mr.Exists("social:user:b"))
}

// TestRedisCache_BrokenValue — мусор в ключе возвращается как ошибка.
func TestRedisCache_BrokenValue(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("social:user:x", "{not json"))

	_, _, err := c.Get(context.Background(), "x")
	require.Error(t, err)
}

// TestNewRedisCache_Errors — неверный URL и недоступный сервер.
func TestNewRedisCache_Errors(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "://bad", "", time.Minute)
	require.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = NewRedisCache(ctx, "redis://"+addr+"/0", "", time.Minute)
	require.Error(t, err)
}

// TestNoop — заглушка всегда промахивается и не падает.
func TestNoop(t *testing.T) {
	var c UsersCache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.User{ID: "u"}))
	_, ok, err := c.Get(ctx, "u")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Invalidate(ctx, "u"))
	require.NoError(t, c.Close())
}
