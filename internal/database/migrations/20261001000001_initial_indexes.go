package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var indexStatements = []struct {
	name  string
	table string
	cols  string
}{
	// Leaderboards scan one chat, game and bucket
	{"idx_daily_stats_board", "daily_stats", "chat_id, game, bucket"},
	{"idx_weekly_stats_board", "weekly_stats", "chat_id, game, bucket"},
	// Pruning walks buckets in order
	{"idx_daily_stats_bucket", "daily_stats", "bucket"},
	{"idx_weekly_stats_bucket", "weekly_stats", "bucket"},
	{"idx_win_streaks_chat", "win_streaks", "chat_id, game"},
	{"idx_tries_chat", "tries", "chat_id"},
	{"idx_wins_chat", "wins", "chat_id"},
	{"idx_jackpots_chat", "jackpots", "chat_id"},
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, idx := range indexStatements {
			_, err := db.NewRaw(fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.cols)).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, idx := range indexStatements {
			_, err := db.NewRaw("DROP INDEX IF EXISTS " + idx.name).Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop index %s: %w", idx.name, err)
			}
		}

		return nil
	})
}
