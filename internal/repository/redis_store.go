package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
}

// RedisStore comparte las claves del panel entre varias terminales del mismo usuario.
type RedisStore struct {
	client   redisKV
	prefix   string
	timeout  time.Duration
	watchers watchers
}

func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		return nil
	}
	return newRedisStore(client)
}

func newRedisStore(client redisKV) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  "riskadvisor:storage:",
		timeout: 500 * time.Millisecond,
	}
}

func (s *RedisStore) SetItem(ctx context.Context, key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.prefix+key, string(encoded), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	s.watchers.publish(StorageEvent{Key: key, Value: value})
	return nil
}

func (s *RedisStore) GetItem(ctx context.Context, key string, out any) (bool, error) {
	key = strings.TrimSpace(key)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) RemoveItem(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	s.watchers.publish(StorageEvent{Key: key})
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return fmt.Errorf("redis keys: %w", err)
	}
	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	s.watchers.publish(StorageEvent{Cleared: true})
	return nil
}

func (s *RedisStore) Watch(ctx context.Context) <-chan StorageEvent {
	return s.watchers.subscribe(ctx)
}
