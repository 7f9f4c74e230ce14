package repository

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where RedisTokenStore keeps the token
const DefaultRedisKey = "signup:" + signup.TokenKey

// RedisTokenStore implements signup.TokenStore with a single redis key
type RedisTokenStore struct {
	redis *redis.Client
	key   string
}

var _ signup.TokenStore = (*RedisTokenStore)(nil)

// NewRedisTokenStore stores the token under key, DefaultRedisKey when empty
func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	if strings.TrimSpace(key) == "" {
		key = DefaultRedisKey
	}
	return &RedisTokenStore{redis: client, key: key}
}

// Key returns the redis key in use
func (s *RedisTokenStore) Key() string {
	return s.key
}

func (s *RedisTokenStore) Get(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", signup.ErrTokenNotFound.Clone().WithMetadata(map[string]any{
				"driver": "redis",
				"key":    s.key,
			})
		}
		return "", goerrors.Wrap(err, goerrors.CategoryExternal, "failed to read token")
	}
	return token, nil
}

// Save overwrites the token. It never expires.
func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.key, token, 0).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to save token")
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to delete token")
	}
	return nil
}
