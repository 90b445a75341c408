package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const reminderKeyPrefix = "campus:"

// RedisReminderGuard отмечает отправленные напоминания ключами с TTL
type RedisReminderGuard struct {
	client *redis.Client
}

func NewRedisReminderGuard(client *redis.Client) *RedisReminderGuard {
	return &RedisReminderGuard{client: client}
}

// NewRedisClient создаёт клиента по REDIS_URL и проверяет соединение
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Acquire возвращает true, если ключ установлен впервые
func (g *RedisReminderGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, reminderKeyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire reminder key: %w", err)
	}
	return ok, nil
}
