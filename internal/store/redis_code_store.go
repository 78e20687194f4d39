package store

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const codeKeyPrefix = "heartbeat:verify-code:"

// RedisCodeStore Redis 实现：TTL 由 Redis 维护
type RedisCodeStore struct {
	c *redis.Client
}

// NewRedisCodeStore 创建 Redis 验证码存储
func NewRedisCodeStore(c *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{c: c}
}

func (s *RedisCodeStore) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.c.Set(ctx, codeKeyPrefix+email, code, ttl).Err()
}

func (s *RedisCodeStore) Get(ctx context.Context, email string) (string, error) {
	val, err := s.c.Get(ctx, codeKeyPrefix+email).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrCodeMiss
		}
		return "", err
	}
	return val, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, email string) error {
	return s.c.Del(ctx, codeKeyPrefix+email).Err()
}
