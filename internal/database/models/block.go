package models

import (
	"context"
	"fmt"

	"github.com/luckyroll/casino/internal/database/dbretry"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// BlockModel handles the blocks table.
type BlockModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBlock creates a new BlockModel.
func NewBlock(db *bun.DB, logger *zap.Logger) *BlockModel {
	return &BlockModel{
		db:     db,
		logger: logger.Named("db_block"),
	}
}

// Upsert stores a block, replacing an earlier one for the same user and chat.
func (r *BlockModel) Upsert(ctx context.Context, entry *types.BlockEntry) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(entry).
			On("CONFLICT (user_id, chat_id) DO UPDATE").
			Set("reason = EXCLUDED.reason").
			Set("end_time = EXCLUDED.end_time").
			Set("created_by = EXCLUDED.created_by").
			Set("created_at = EXCLUDED.created_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to block user %d: %w", entry.UserID, err)
		}

		return nil
	})
}

// Delete lifts a block and reports whether one existed.
func (r *BlockModel) Delete(ctx context.Context, userID, chatID int64) (bool, error) {
	affected, err := deleteOrSkip(ctx, r.db.NewDelete().
		Model((*types.BlockEntry)(nil)).
		Where("user_id = ?", userID).
		Where("chat_id = ?", chatID))
	if err != nil {
		return false, fmt.Errorf("failed to unblock user %d: %w", userID, err)
	}

	return affected > 0, nil
}

// ListForUser returns the blocks of a user in a chat plus the global ones.
// Expired entries are included; callers check BlockEntry.Active.
func (r *BlockModel) ListForUser(ctx context.Context, userID, chatID int64) ([]*types.BlockEntry, error) {
	entries, err := readOrEmpty(ctx, func(ctx context.Context) ([]*types.BlockEntry, error) {
		var entries []*types.BlockEntry

		err := r.db.NewSelect().
			Model(&entries).
			Where("user_id = ?", userID).
			Where("chat_id IN (?)", bun.In([]int64{chatID, types.GlobalChatID})).
			Scan(ctx)

		return entries, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}

	return entries, nil
}
