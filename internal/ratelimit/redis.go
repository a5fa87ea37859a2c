package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// KeyPrefix namespaces the cooldown keys.
const KeyPrefix = "ratelimit"

// RedisLimiter shares cooldowns between bot processes. A key exists while its
// window is open and Redis expires it afterwards, so the server clock decides
// and the now argument is ignored.
type RedisLimiter struct {
	client rueidis.Client
	policy Policy
	logger *zap.Logger
}

// NewRedis creates a limiter on the given client.
func NewRedis(client rueidis.Client, policy Policy, logger *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		policy: policy,
		logger: logger.Named("ratelimit_redis"),
	}
}

// Admit opens the window with SET NX PX; an existing key rejects the roll.
func (r *RedisLimiter) Admit(ctx context.Context, key Key, _ time.Time) (bool, error) {
	cooldown := r.policy.Cooldown(key.UserID)
	if cooldown <= 0 {
		return true, nil
	}

	err := r.client.Do(ctx, r.client.B().Set().
		Key(redisKey(key)).
		Value("1").
		Nx().
		Px(cooldown).
		Build()).Error()
	if rueidis.IsRedisNil(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to admit roll: %w", err)
	}

	return true, nil
}

// Release deletes the window key. The admission time is not stored, so a
// window opened by another process in between is deleted as well.
func (r *RedisLimiter) Release(ctx context.Context, key Key, _ time.Time) error {
	err := r.client.Do(ctx, r.client.B().Del().Key(redisKey(key)).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to release roll: %w", err)
	}

	return nil
}

func redisKey(key Key) string {
	return fmt.Sprintf("%s:%d:%d", KeyPrefix, key.ChatID, key.UserID)
}
