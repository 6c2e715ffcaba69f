package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoRedis is returned by lock operations when Redis is not configured.
var ErrNoRedis = errors.New("redis not configured")

const lockPrefix = "lock:"

// AcquireLock tries to take the named lock for ttl. It returns false when another
// holder owns it. The lock expires on its own; there is no explicit release.
func (s *Service) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if s.Redis == nil {
		return false, ErrNoRedis
	}
	ok, err := s.Redis.SetNX(ctx, lockPrefix+name, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// LockHolder returns when the named lock was taken, or empty if it is free.
func (s *Service) LockHolder(ctx context.Context, name string) (string, error) {
	if s.Redis == nil {
		return "", ErrNoRedis
	}
	v, err := s.Redis.Get(ctx, lockPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}
