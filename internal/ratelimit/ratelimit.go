// Package ratelimit enforces a minimum interval between scored rolls of a user in a chat.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/luckyroll/casino/internal/redis"
	"github.com/luckyroll/casino/internal/setup/config"
	"go.uber.org/zap"
)

// Key identifies one cooldown window. Command rolls and dice messages share it.
type Key struct {
	UserID int64
	ChatID int64
}

// Limiter admits or rejects rolls. A rejected roll never moves the window.
// Release reopens a window taken at admittedAt by a roll that was not scored.
type Limiter interface {
	Admit(ctx context.Context, key Key, now time.Time) (bool, error)
	Release(ctx context.Context, key Key, admittedAt time.Time) error
}

// Policy resolves the cooldown of a user.
type Policy struct {
	Default   time.Duration
	Overrides map[int64]time.Duration
}

// NewPolicy builds a policy from config.
func NewPolicy(cfg config.RateLimit) Policy {
	overrides := make(map[int64]time.Duration, len(cfg.Overrides))
	for _, o := range cfg.Overrides {
		overrides[o.UserID] = time.Duration(o.Cooldown) * time.Millisecond
	}

	return Policy{
		Default:   time.Duration(cfg.Cooldown) * time.Millisecond,
		Overrides: overrides,
	}
}

// Cooldown returns the interval a user has to wait between rolls.
func (p Policy) Cooldown(userID int64) time.Duration {
	if d, ok := p.Overrides[userID]; ok {
		return d
	}

	return p.Default
}

// New returns the limiter selected by ratelimit.backend.
func New(cfg config.RateLimit, manager *redis.Manager, logger *zap.Logger) (Limiter, error) {
	policy := NewPolicy(cfg)

	switch cfg.Backend {
	case config.RateLimitMemory, "":
		return NewMemory(policy, logger), nil
	case config.RateLimitRedis:
		client, err := manager.GetClient(redis.RateLimitDBIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to get rate limit client: %w", err)
		}

		return NewRedis(client, policy, logger), nil
	}

	return nil, fmt.Errorf("%w: unknown rate limit backend %q", config.ErrInvalidConfig, cfg.Backend)
}
