package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"teknologiumum.com/pesto/models"
)

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapRedisError("get", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return wrapRedisError("set", key, err)
	}
	return nil
}

func (s *RedisStore) SetWithExpiry(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrapRedisError("setex", key, err)
	}
	return nil
}

func (s *RedisStore) Replace(ctx context.Context, key string, value string) error {
	if err := s.client.SetArgs(ctx, key, value, redis.SetArgs{KeepTTL: true}).Err(); err != nil {
		return wrapRedisError("set keepttl", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return wrapRedisError("del", key, err)
	}
	return nil
}

func (s *RedisStore) ListAppend(ctx context.Context, key string, value string) error {
	if err := s.client.RPush(ctx, key, value).Err(); err != nil {
		return wrapRedisError("rpush", key, err)
	}
	return nil
}

func (s *RedisStore) ListRange(ctx context.Context, key string) ([]string, error) {
	values, err := s.client.LRange(ctx, key, 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, wrapRedisError("lrange", key, err)
	}
	return values, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrapRedisError("ping", "", err)
	}
	return nil
}

// Acquire takes the lock with SET NX so only one replica wins per ttl.
func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	locked, err := s.client.SetNX(ctx, key, "running", ttl).Result()
	if err != nil {
		return false, wrapRedisError("setnx", key, err)
	}
	return locked, nil
}

func wrapRedisError(op string, key string, err error) error {
	// a key holding the wrong type is a shape problem, not an outage
	if strings.HasPrefix(err.Error(), "WRONGTYPE") {
		return &models.KindError{Kind: models.ErrDecode, Msg: op + " " + key + ": " + err.Error()}
	}
	return &models.BackendError{Op: op, Key: key, Err: err}
}
