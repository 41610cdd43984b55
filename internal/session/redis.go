package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "inkshelf:session:"

// RedisStore keeps sessions in a Redis hash per session ID with TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(addr, password string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

func (s *RedisStore) Read(ctx context.Context, sid string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	values, err := s.client.HGetAll(ctx, redisKeyPrefix+sid).Result()
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *RedisStore) Write(ctx context.Context, sid string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	key := redisKeyPrefix + sid
	flat := make([]any, 0, len(values)*2)
	for field, value := range values {
		flat = append(flat, field, value)
	}
	if err := s.client.HSet(ctx, key, flat...).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

func (s *RedisStore) Remove(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	err := s.client.HDel(ctx, redisKeyPrefix+sid, keys...).Err()
	if err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	err := s.client.Del(ctx, redisKeyPrefix+sid).Err()
	if err != nil && err != redis.Nil {
		return err
	}
	return nil
}
