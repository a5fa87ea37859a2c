package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/luckyroll/casino/internal/database/models"
	"github.com/luckyroll/casino/internal/database/service"
	"go.uber.org/zap"
)

// Builder reads leaderboards through an optional cache.
type Builder struct {
	stats  *service.StatsService
	users  *models.UserModel
	cache  Cache
	logger *zap.Logger
}

// NewBuilder creates a rating builder. A nil cache disables caching.
func NewBuilder(stats *service.StatsService, users *models.UserModel, cache Cache, logger *zap.Logger) *Builder {
	if cache == nil {
		cache = NopCache{}
	}

	return &Builder{
		stats:  stats,
		users:  users,
		cache:  cache,
		logger: logger.Named("rating"),
	}
}

// Build returns the leaderboard of the bucket that now falls into.
func (b *Builder) Build(ctx context.Context, q Query, now time.Time) ([]Entry, error) {
	bucket := b.stats.Bucket(q.Period, now)
	key := CacheKey(q, bucket)

	if entries, ok, err := b.cache.Get(ctx, key); err != nil {
		b.logger.Warn("Rating cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return entries, nil
	}

	rows, err := b.stats.GetPeriodStats(ctx, q.ChatID, q.Period, &q.Game, &bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s stats: %w", q.Period, err)
	}

	entries := Compute(rows, q.Game, q.Criterion)

	if err := b.attachNames(ctx, entries); err != nil {
		return nil, err
	}

	if err := b.cache.Set(ctx, key, entries); err != nil {
		b.logger.Warn("Rating cache write failed", zap.String("key", key), zap.Error(err))
	}

	return entries, nil
}

// Invalidate drops cached leaderboards of a chat, or of every chat when chatID is nil.
func (b *Builder) Invalidate(ctx context.Context, chatID *int64) {
	var err error
	if chatID == nil {
		err = b.cache.InvalidateAll(ctx)
	} else {
		err = b.cache.InvalidateChat(ctx, *chatID)
	}

	if err != nil {
		b.logger.Warn("Rating cache invalidation failed", zap.Error(err))
	}
}

func (b *Builder) attachNames(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]int64, len(entries))
	for i, entry := range entries {
		ids[i] = entry.UserID
	}

	users, err := b.users.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load names: %w", err)
	}

	for i := range entries {
		if user, ok := users[entries[i].UserID]; ok && user.Name != "" {
			entries[i].Name = user.Name
		} else {
			entries[i].Name = fmt.Sprintf("id%d", entries[i].UserID)
		}
	}

	return nil
}
