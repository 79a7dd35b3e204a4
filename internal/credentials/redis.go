package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token in a Redis key so several bridge processes can
// share one sign-in.
type RedisStore struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return rdb, nil
}

// NewRedisStore creates a store using key on rdb.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, now: time.Now}
}

// Token reads the token. The key's TTL mirrors the token expiry.
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	token, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if !usable(token, s.now()) {
		return "", ErrNoToken
	}
	return token, nil
}

// Set stores the token, expiring the key with the token when it carries exp.
func (s *RedisStore) Set(ctx context.Context, token string) error {
	var ttl time.Duration
	if c, err := ParseClaims(token); err == nil && !c.ExpiresAt.IsZero() {
		ttl = c.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return ErrNoToken
		}
	}
	if err := s.rdb.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Clear deletes the key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
