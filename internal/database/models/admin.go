package models

import (
	"context"
	"fmt"
	"time"

	"github.com/luckyroll/casino/internal/database/dbretry"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AdminModel handles the admins table.
type AdminModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAdmin creates a new AdminModel.
func NewAdmin(db *bun.DB, logger *zap.Logger) *AdminModel {
	return &AdminModel{
		db:     db,
		logger: logger.Named("db_admin"),
	}
}

// Add grants admin rights. Adding an existing admin is a no-op.
func (r *AdminModel) Add(ctx context.Context, userID int64, now time.Time) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(&types.Admin{UserID: userID, AddedAt: now}).
			On("CONFLICT (user_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add admin %d: %w", userID, err)
		}

		r.logger.Info("Admin added", zap.Int64("userID", userID))

		return nil
	})
}

// Remove revokes admin rights granted through the table.
func (r *AdminModel) Remove(ctx context.Context, userID int64) error {
	_, err := deleteOrSkip(ctx, r.db.NewDelete().
		Model((*types.Admin)(nil)).
		Where("user_id = ?", userID))
	if err != nil {
		return fmt.Errorf("failed to remove admin %d: %w", userID, err)
	}

	return nil
}

// Exists reports whether the user is listed in the admins table.
func (r *AdminModel) Exists(ctx context.Context, userID int64) (bool, error) {
	exists, err := readOrEmpty(ctx, func(ctx context.Context) (bool, error) {
		return r.db.NewSelect().
			Model((*types.Admin)(nil)).
			Where("user_id = ?", userID).
			Exists(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check admin %d: %w", userID, err)
	}

	return exists, nil
}

// List returns every admin in the table.
func (r *AdminModel) List(ctx context.Context) ([]*types.Admin, error) {
	admins, err := readOrEmpty(ctx, func(ctx context.Context) ([]*types.Admin, error) {
		var admins []*types.Admin
		err := r.db.NewSelect().Model(&admins).Order("user_id ASC").Scan(ctx)

		return admins, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	return admins, nil
}
