package models

import (
	"context"
	"fmt"
	"time"

	"github.com/luckyroll/casino/internal/database/dbretry"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PeriodModel handles the daily_stats and weekly_stats rollup tables.
type PeriodModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPeriod creates a new PeriodModel.
func NewPeriod(db *bun.DB, logger *zap.Logger) *PeriodModel {
	return &PeriodModel{
		db:     db,
		logger: logger.Named("db_period"),
	}
}

// PeriodKey identifies one rollup row.
type PeriodKey struct {
	UserID int64
	ChatID int64
	Game   enum.Game
	Bucket string
}

// UpsertWithTx adds delta to one rollup row. Counts are summed while the
// best streak only ever rises.
func (r *PeriodModel) UpsertWithTx(
	ctx context.Context, idb bun.IDB, period enum.Period, key PeriodKey, delta types.PeriodDelta, now time.Time,
) error {
	var row any

	switch period {
	case enum.PeriodDay:
		row = &types.DailyStat{
			UserID: key.UserID, ChatID: key.ChatID, Game: key.Game, Bucket: key.Bucket,
			Tries: delta.Tries, Wins: delta.Wins, Jackpots: delta.Jackpots, BestStreak: delta.Streak,
			LastUpdated: now,
		}
	case enum.PeriodWeek:
		row = &types.WeeklyStat{
			UserID: key.UserID, ChatID: key.ChatID, Game: key.Game, Bucket: key.Bucket,
			Tries: delta.Tries, Wins: delta.Wins, Jackpots: delta.Jackpots, BestStreak: delta.Streak,
			LastUpdated: now,
		}
	default:
		return fmt.Errorf("unknown period %s", period)
	}

	_, err := idb.NewInsert().
		Model(row).
		On("CONFLICT (user_id, chat_id, game, bucket) DO UPDATE").
		Set("tries = ?TableAlias.tries + EXCLUDED.tries").
		Set("wins = ?TableAlias.wins + EXCLUDED.wins").
		Set("jackpots = ?TableAlias.jackpots + EXCLUDED.jackpots").
		Set("best_streak = CASE WHEN EXCLUDED.best_streak > ?TableAlias.best_streak " +
			"THEN EXCLUDED.best_streak ELSE ?TableAlias.best_streak END").
		Set("last_updated = EXCLUDED.last_updated").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert %s stats: %w", period, err)
	}

	return nil
}

// Upsert is UpsertWithTx outside of a transaction.
func (r *PeriodModel) Upsert(
	ctx context.Context, period enum.Period, key PeriodKey, delta types.PeriodDelta, now time.Time,
) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		return r.UpsertWithTx(ctx, r.db, period, key, delta, now)
	})
}

// List returns the rollup rows of a chat bucket, optionally for one game only.
func (r *PeriodModel) List(
	ctx context.Context, period enum.Period, chatID int64, game *enum.Game, bucket string,
) ([]*types.PeriodStat, error) {
	filter := func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("chat_id = ?", chatID).Where("bucket = ?", bucket)
		if game != nil {
			q = q.Where("game = ?", *game)
		}

		return q.Order("user_id ASC", "game ASC")
	}

	result, err := readOrEmpty(ctx, func(ctx context.Context) ([]*types.PeriodStat, error) {
		switch period {
		case enum.PeriodDay:
			var rows []*types.DailyStat
			if err := filter(r.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
				return nil, err
			}

			out := make([]*types.PeriodStat, 0, len(rows))
			for _, row := range rows {
				out = append(out, row.ToPeriodStat())
			}

			return out, nil

		case enum.PeriodWeek:
			var rows []*types.WeeklyStat
			if err := filter(r.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
				return nil, err
			}

			out := make([]*types.PeriodStat, 0, len(rows))
			for _, row := range rows {
				out = append(out, row.ToPeriodStat())
			}

			return out, nil
		}

		return nil, fmt.Errorf("unknown period %s", period)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s stats: %w", period, err)
	}

	return result, nil
}

// DeleteScope removes rollup rows in scope.
func (r *PeriodModel) DeleteScope(ctx context.Context, period enum.Period, scope Scope) (int64, error) {
	model, err := periodModel(period)
	if err != nil {
		return 0, err
	}

	affected, err := deleteOrSkip(ctx, scope.apply(r.db.NewDelete().Model(model)))
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s stats: %w", period, err)
	}

	return affected, nil
}

// PruneBefore deletes buckets older than the given bucket.
func (r *PeriodModel) PruneBefore(ctx context.Context, period enum.Period, bucket string) (int64, error) {
	model, err := periodModel(period)
	if err != nil {
		return 0, err
	}

	affected, err := deleteOrSkip(ctx, r.db.NewDelete().Model(model).Where("bucket < ?", bucket))
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s stats: %w", period, err)
	}

	r.logger.Info("Pruned rollup buckets",
		zap.String("period", period.String()),
		zap.String("before", bucket),
		zap.Int64("rows", affected))

	return affected, nil
}

func periodModel(period enum.Period) (any, error) {
	switch period {
	case enum.PeriodDay:
		return (*types.DailyStat)(nil), nil
	case enum.PeriodWeek:
		return (*types.WeeklyStat)(nil), nil
	}

	return nil, fmt.Errorf("unknown period %s", period)
}
