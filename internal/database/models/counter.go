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

// CounterModel handles the tries, wins and jackpots tables.
type CounterModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewCounter creates a new CounterModel.
func NewCounter(db *bun.DB, logger *zap.Logger) *CounterModel {
	return &CounterModel{
		db:     db,
		logger: logger.Named("db_counter"),
	}
}

// IncrementWithTx adds one to the game column of a counter row, creating the
// row when needed. Jackpots always land in the slots column.
func (r *CounterModel) IncrementWithTx(
	ctx context.Context, idb bun.IDB, table enum.CounterTable, userID, chatID int64, game enum.Game, now time.Time,
) error {
	var (
		row    any
		column = game.String()
	)

	switch table {
	case enum.CounterTableTries:
		tries := &types.TriesRow{UserID: userID, ChatID: chatID, LastUpdated: now}
		tries.SetGame(game, 1)
		row = tries
	case enum.CounterTableWins:
		wins := &types.WinsRow{UserID: userID, ChatID: chatID, LastUpdated: now}
		wins.SetGame(game, 1)
		row = wins
	case enum.CounterTableJackpots:
		row = &types.JackpotsRow{UserID: userID, ChatID: chatID, Slots: 1, LastUpdated: now}
		column = enum.GameSlots.String()
	default:
		return fmt.Errorf("unknown counter table %s", table)
	}

	_, err := idb.NewInsert().
		Model(row).
		On("CONFLICT (user_id, chat_id) DO UPDATE").
		Set("? = ?TableAlias.? + EXCLUDED.?", bun.Ident(column), bun.Ident(column), bun.Ident(column)).
		Set("last_updated = EXCLUDED.last_updated").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment %s.%s: %w", table, column, err)
	}

	return nil
}

// Increment is IncrementWithTx outside of a transaction.
func (r *CounterModel) Increment(
	ctx context.Context, table enum.CounterTable, userID, chatID int64, game enum.Game, now time.Time,
) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		return r.IncrementWithTx(ctx, r.db, table, userID, chatID, game, now)
	})
}

// Get returns the zero-filled counters of a user in a chat.
func (r *CounterModel) Get(
	ctx context.Context, table enum.CounterTable, userID, chatID int64,
) (*types.Counters, error) {
	rows, err := r.list(ctx, table, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Where("chat_id = ?", chatID)
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return types.NewCounters(userID, chatID), nil
	}

	return rows[0], nil
}

// GetAll returns every counter row of a table, optionally restricted to one chat.
func (r *CounterModel) GetAll(
	ctx context.Context, table enum.CounterTable, chatID *int64,
) ([]*types.Counters, error) {
	return r.list(ctx, table, func(q *bun.SelectQuery) *bun.SelectQuery {
		if chatID != nil {
			q = q.Where("chat_id = ?", *chatID)
		}

		return q.Order("chat_id ASC", "user_id ASC")
	})
}

// DeleteScope removes counter rows in scope and returns how many were deleted.
func (r *CounterModel) DeleteScope(ctx context.Context, table enum.CounterTable, scope Scope) (int64, error) {
	var model any

	switch table {
	case enum.CounterTableTries:
		model = (*types.TriesRow)(nil)
	case enum.CounterTableWins:
		model = (*types.WinsRow)(nil)
	case enum.CounterTableJackpots:
		model = (*types.JackpotsRow)(nil)
	default:
		return 0, fmt.Errorf("unknown counter table %s", table)
	}

	affected, err := deleteOrSkip(ctx, scope.apply(r.db.NewDelete().Model(model)))
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	return affected, nil
}

// list scans a counter table into its table-independent form.
func (r *CounterModel) list(
	ctx context.Context, table enum.CounterTable, filter func(*bun.SelectQuery) *bun.SelectQuery,
) ([]*types.Counters, error) {
	result, err := readOrEmpty(ctx, func(ctx context.Context) ([]*types.Counters, error) {
		switch table {
		case enum.CounterTableTries:
			var rows []*types.TriesRow
			if err := filter(r.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
				return nil, err
			}

			out := make([]*types.Counters, 0, len(rows))
			for _, row := range rows {
				out = append(out, row.ToCounters())
			}

			return out, nil

		case enum.CounterTableWins:
			var rows []*types.WinsRow
			if err := filter(r.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
				return nil, err
			}

			out := make([]*types.Counters, 0, len(rows))
			for _, row := range rows {
				out = append(out, row.ToCounters())
			}

			return out, nil

		case enum.CounterTableJackpots:
			var rows []*types.JackpotsRow
			if err := filter(r.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
				return nil, err
			}

			out := make([]*types.Counters, 0, len(rows))
			for _, row := range rows {
				out = append(out, row.ToCounters())
			}

			return out, nil
		}

		return nil, fmt.Errorf("unknown counter table %s", table)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	return result, nil
}
