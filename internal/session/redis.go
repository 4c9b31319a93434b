package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fintrack:session:"

// RedisBackend stores one string key per session and lets Redis expire it.
type RedisBackend struct {
	rdb *redis.Client
}

func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (b *RedisBackend) Save(ctx context.Context, key string, userID int64, ttl time.Duration) error {
	return b.rdb.Set(ctx, redisKeyPrefix+key, strconv.FormatInt(userID, 10), ttl).Err()
}

func (b *RedisBackend) Load(ctx context.Context, key string) (int64, error) {
	raw, err := b.rdb.Get(ctx, redisKeyPrefix+key).Result()

	if errors.Is(err, redis.Nil) {
		return 0, ErrNoSession
	}

	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrNoSession
	}

	return id, nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	n, err := b.rdb.Del(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrNoSession
	}

	return nil
}
