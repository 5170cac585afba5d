// Package cache содержит Redis-кэш пользовательских документов (cache-aside).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pribylovaa/go-social-network/internal/models"
	"github.com/redis/go-redis/v9"
)

// UsersCache — минимальный контракт кэша пользователей.
type UsersCache interface {
	// Get возвращает пользователя и признак его наличия в кэше.
	Get(ctx context.Context, id string) (*models.User, bool, error)
	// Set сохраняет пользователя с TTL из конфигурации.
	Set(ctx context.Context, user *models.User) error
	// Invalidate удаляет записи; вызывается после любых изменений документа.
	Invalidate(ctx context.Context, ids ...string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "social:user:".
func NewRedisCache(ctx context.Context, redisURL, prefix string, ttl time.Duration) (UsersCache, error) {
	if prefix == "" {
		prefix = "social:user:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (c *redisCache) key(id string) string { return c.prefix + id }

// Храним документ целиком как JSON-строку.
func (c *redisCache) Get(ctx context.Context, id string) (*models.User, bool, error) {
	data, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, false, err
	}

	return &u, true, nil
}

func (c *redisCache) Set(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, c.key(user.ID), data, c.ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}

	return c.rdb.Del(ctx, keys...).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }

// Noop — кэш-заглушка для запуска без Redis (redis.url пуст): всегда промах.
type Noop struct{}

var _ UsersCache = Noop{}

func (Noop) Get(context.Context, string) (*models.User, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, *models.User) error                  { return nil }
func (Noop) Invalidate(context.Context, ...string) error              { return nil }
func (Noop) Close() error                                             { return nil }
