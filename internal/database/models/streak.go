package models

import (
	"context"
	"fmt"
	"time"

	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// StreakModel handles the win_streaks table.
type StreakModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewStreak creates a new StreakModel.
func NewStreak(db *bun.DB, logger *zap.Logger) *StreakModel {
	return &StreakModel{
		db:     db,
		logger: logger.Named("db_streak"),
	}
}

// UpdateWithTx applies one roll to a streak in a single statement and returns
// the stored state. The SET clause reads the pre-update row, so best_streak
// compares against the incremented current streak.
func (r *StreakModel) UpdateWithTx(
	ctx context.Context, idb bun.IDB, userID, chatID int64, game enum.Game, isWin bool, now time.Time,
) (types.StreakState, error) {
	row := &types.WinStreak{UserID: userID, ChatID: chatID, Game: game}

	q := idb.NewInsert().
		Model(row).
		On("CONFLICT (user_id, chat_id, game) DO UPDATE")

	if isWin {
		row.CurrentStreak = 1
		row.BestStreak = 1
		row.LastWinAt = now

		q = q.
			Set("current_streak = ?TableAlias.current_streak + 1").
			Set("best_streak = CASE WHEN ?TableAlias.current_streak + 1 > ?TableAlias.best_streak " +
				"THEN ?TableAlias.current_streak + 1 ELSE ?TableAlias.best_streak END").
			Set("last_win_at = EXCLUDED.last_win_at")
	} else {
		q = q.Set("current_streak = 0")
	}

	if _, err := q.Returning("current_streak, best_streak").Exec(ctx); err != nil {
		return types.StreakState{}, fmt.Errorf("failed to update streak: %w", err)
	}

	return types.StreakState{Current: row.CurrentStreak, Best: row.BestStreak}, nil
}

// Get returns the streak of a user, zero when none was recorded.
func (r *StreakModel) Get(ctx context.Context, userID, chatID int64, game enum.Game) (*types.WinStreak, error) {
	streaks, err := readOrEmpty(ctx, func(ctx context.Context) ([]*types.WinStreak, error) {
		var rows []*types.WinStreak

		err := r.db.NewSelect().
			Model(&rows).
			Where("user_id = ?", userID).
			Where("chat_id = ?", chatID).
			Where("game = ?", game).
			Scan(ctx)

		return rows, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	if len(streaks) == 0 {
		return &types.WinStreak{UserID: userID, ChatID: chatID, Game: game}, nil
	}

	return streaks[0], nil
}

// List returns the streaks of a chat, optionally for one game only.
func (r *StreakModel) List(ctx context.Context, chatID int64, game *enum.Game) ([]*types.WinStreak, error) {
	streaks, err := readOrEmpty(ctx, func(ctx context.Context) ([]*types.WinStreak, error) {
		var rows []*types.WinStreak

		q := r.db.NewSelect().
			Model(&rows).
			Where("chat_id = ?", chatID)
		if game != nil {
			q = q.Where("game = ?", *game)
		}

		err := q.Order("best_streak DESC", "user_id ASC").Scan(ctx)

		return rows, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}

	return streaks, nil
}

// DeleteScope removes streaks in scope.
func (r *StreakModel) DeleteScope(ctx context.Context, scope Scope) (int64, error) {
	affected, err := deleteOrSkip(ctx, scope.apply(r.db.NewDelete().Model((*types.WinStreak)(nil))))
	if err != nil {
		return 0, fmt.Errorf("failed to delete streaks: %w", err)
	}

	return affected, nil
}
