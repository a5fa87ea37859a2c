package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/luckyroll/casino/internal/database/dbretry"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserModel handles the users table.
type UserModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewUser creates a new UserModel.
func NewUser(db *bun.DB, logger *zap.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger.Named("db_user"),
	}
}

// Ensure creates the user on first sight with congratulations enabled and
// refreshes the display name on later calls.
func (r *UserModel) Ensure(ctx context.Context, id int64, name string, now time.Time) (*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		user := &types.User{
			ID:           id,
			Name:         name,
			Congratulate: true,
			CreatedAt:    now,
		}

		_, err := r.db.NewInsert().
			Model(user).
			On("CONFLICT (id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Returning("*").
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure user %d: %w", id, err)
		}

		return user, nil
	})
}

// Get returns a user or types.ErrUserNotFound.
func (r *UserModel) Get(ctx context.Context, id int64) (*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		var user types.User

		err := r.db.NewSelect().
			Model(&user).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrUserNotFound
			}

			return nil, fmt.Errorf("failed to get user %d: %w", id, err)
		}

		return &user, nil
	})
}

// GetByIDs returns the known users among ids. Unknown IDs are absent from the map.
func (r *UserModel) GetByIDs(ctx context.Context, ids []int64) (map[int64]*types.User, error) {
	if len(ids) == 0 {
		return map[int64]*types.User{}, nil
	}

	users, err := readOrEmpty(ctx, func(ctx context.Context) ([]*types.User, error) {
		var users []*types.User

		err := r.db.NewSelect().
			Model(&users).
			Where("id IN (?)", bun.In(ids)).
			Scan(ctx)

		return users, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	result := make(map[int64]*types.User, len(users))
	for _, user := range users {
		result[user.ID] = user
	}

	return result, nil
}

// ToggleCongratulate flips the congratulation preference and returns the new value.
func (r *UserModel) ToggleCongratulate(ctx context.Context, id int64) (bool, error) {
	var enabled bool

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*types.User)(nil)).
			Set("congratulate = NOT congratulate").
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to toggle congratulations: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return types.ErrUserNotFound
		}

		var user types.User
		if err := tx.NewSelect().Model(&user).Where("id = ?", id).Scan(ctx); err != nil {
			return fmt.Errorf("failed to read congratulations: %w", err)
		}

		enabled = user.Congratulate

		return nil
	})
	if err != nil {
		return false, err
	}

	return enabled, nil
}
