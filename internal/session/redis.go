package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const sessionKey = "aurabank:session:v1"

// RedisStore keeps the session identifier under a single well-known Redis
// key, for deployments where the client host has no stable disk.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore configures a Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Load reads the session identifier from Redis.
func (s *RedisStore) Load(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// Save writes the session identifier.
func (s *RedisStore) Save(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if err := s.client.Set(ctx, sessionKey, id, 0).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear deletes the session key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
