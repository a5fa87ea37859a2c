package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryLimiter keeps the last admitted time of each key in process memory.
// State is lost on restart.
type MemoryLimiter struct {
	mu     sync.Mutex
	last   map[Key]time.Time
	policy Policy
	logger *zap.Logger
}

// NewMemory creates an empty in-process limiter.
func NewMemory(policy Policy, logger *zap.Logger) *MemoryLimiter {
	return &MemoryLimiter{
		last:   make(map[Key]time.Time),
		policy: policy,
		logger: logger.Named("ratelimit_memory"),
	}
}

// Admit admits the first roll of a key and later rolls once the cooldown has
// elapsed since the last admitted one.
func (m *MemoryLimiter) Admit(_ context.Context, key Key, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.last[key]; ok && now.Sub(last) < m.policy.Cooldown(key.UserID) {
		return false, nil
	}

	m.last[key] = now

	return true, nil
}

// Release forgets the key if its window is still the one opened at admittedAt.
// A later admission is left alone.
func (m *MemoryLimiter) Release(_ context.Context, key Key, admittedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.last[key]; ok && last.Equal(admittedAt) {
		delete(m.last, key)
	}

	return nil
}

// Sweep drops keys whose window has fully elapsed and returns how many were dropped.
// A dropped key behaves exactly like a key that was never seen.
func (m *MemoryLimiter) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, last := range m.last {
		if now.Sub(last) >= m.policy.Cooldown(key.UserID) {
			delete(m.last, key)
			removed++
		}
	}

	return removed
}

// Len returns the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.last)
}

// Run sweeps on every tick until ctx is done.
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if removed := m.Sweep(now); removed > 0 {
				m.logger.Debug("Swept rate limit keys", zap.Int("removed", removed))
			}
		}
	}
}
