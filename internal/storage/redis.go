package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage maps each scope to one hash: <prefix>:<scope>.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(redisURL, prefix string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStorage(client, prefix), nil
}

func newRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "stickytab"
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) hashKey(scope Scope) string {
	return fmt.Sprintf("%s:%s", s.prefix, scope)
}

func (s *RedisStorage) Get(ctx context.Context, scope Scope, keys ...string) (map[string]json.RawMessage, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	result := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	values, err := s.client.HMGet(ctx, s.hashKey(scope), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s scope: %w", scope, err)
	}
	for i, value := range values {
		if str, ok := value.(string); ok {
			result[keys[i]] = json.RawMessage(str)
		}
	}
	return result, nil
}

func (s *RedisStorage) Set(ctx context.Context, scope Scope, values map[string]any) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	keys, encoded, err := encodeValues(values)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	fields := make(map[string]any, len(keys))
	for _, key := range keys {
		fields[key] = string(encoded[key])
	}
	if err := s.client.HSet(ctx, s.hashKey(scope), fields).Err(); err != nil {
		return fmt.Errorf("failed to write %s scope: %w", scope, err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
