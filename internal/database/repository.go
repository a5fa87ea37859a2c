package database

import (
	"github.com/luckyroll/casino/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	user    *models.UserModel
	admin   *models.AdminModel
	counter *models.CounterModel
	period  *models.PeriodModel
	streak  *models.StreakModel
	block   *models.BlockModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		user:    models.NewUser(db, logger),
		admin:   models.NewAdmin(db, logger),
		counter: models.NewCounter(db, logger),
		period:  models.NewPeriod(db, logger),
		streak:  models.NewStreak(db, logger),
		block:   models.NewBlock(db, logger),
	}
}

// User returns the user model repository.
func (r *Repository) User() *models.UserModel {
	return r.user
}

// Admin returns the admin model repository.
func (r *Repository) Admin() *models.AdminModel {
	return r.admin
}

// Counter returns the tries, wins and jackpots model repository.
func (r *Repository) Counter() *models.CounterModel {
	return r.counter
}

// Period returns the daily and weekly rollup model repository.
func (r *Repository) Period() *models.PeriodModel {
	return r.period
}

// Streak returns the win streak model repository.
func (r *Repository) Streak() *models.StreakModel {
	return r.streak
}

// Block returns the block model repository.
func (r *Repository) Block() *models.BlockModel {
	return r.block
}
