package database

import (
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	stats      *service.StatsService
	moderation *service.ModerationService
}

// NewService creates a new service instance with all services.
func NewService(db *bun.DB, repository *Repository, settings service.Settings, logger *zap.Logger) *Service {
	return &Service{
		stats: service.NewStats(
			db, repository.Counter(), repository.Period(), repository.Streak(), settings, logger,
		),
		moderation: service.NewModeration(repository.Admin(), repository.Block(), settings, logger),
	}
}

// Stats returns the stats service.
func (s *Service) Stats() *service.StatsService {
	return s.stats
}

// Moderation returns the moderation service.
func (s *Service) Moderation() *service.ModerationService {
	return s.moderation
}
