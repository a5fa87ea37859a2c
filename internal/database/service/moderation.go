package service

import (
	"context"
	"time"

	"github.com/luckyroll/casino/internal/database/models"
	"github.com/luckyroll/casino/internal/database/types"
	"go.uber.org/zap"
)

// ModerationService decides who may run admin commands and who is kept from playing.
type ModerationService struct {
	admin      *models.AdminModel
	block      *models.BlockModel
	adminIDs   map[int64]struct{}
	blockedIDs map[int64]struct{}
	logger     *zap.Logger
}

// NewModeration creates a new moderation service.
func NewModeration(
	admin *models.AdminModel, block *models.BlockModel, settings Settings, logger *zap.Logger,
) *ModerationService {
	return &ModerationService{
		admin:      admin,
		block:      block,
		adminIDs:   idSet(settings.AdminIDs),
		blockedIDs: idSet(settings.BlockedIDs),
		logger:     logger.Named("moderation_service"),
	}
}

// IsAdmin reports whether the user is an admin by config or by the admins table.
func (s *ModerationService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if _, ok := s.adminIDs[userID]; ok {
		return true, nil
	}

	ok, err := s.admin.Exists(ctx, userID)
	if err != nil {
		return false, types.WrapStore("is admin", err)
	}

	return ok, nil
}

// AddAdmin grants admin rights through the admins table.
func (s *ModerationService) AddAdmin(ctx context.Context, userID int64) error {
	return types.WrapStore("add admin", s.admin.Add(ctx, userID, time.Now().UTC()))
}

// RemoveAdmin revokes rights granted through the admins table. Config admins
// are unaffected.
func (s *ModerationService) RemoveAdmin(ctx context.Context, userID int64) error {
	return types.WrapStore("remove admin", s.admin.Remove(ctx, userID))
}

// ListAdmins returns the admins table.
func (s *ModerationService) ListAdmins(ctx context.Context) ([]*types.Admin, error) {
	admins, err := s.admin.List(ctx)
	if err != nil {
		return nil, types.WrapStore("list admins", err)
	}

	return admins, nil
}

// Block keeps a user from being scored until entry.EndTime.
func (s *ModerationService) Block(ctx context.Context, entry *types.BlockEntry) error {
	entry.EndTime = entry.EndTime.UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := s.block.Upsert(ctx, entry); err != nil {
		return types.WrapStore("block", err)
	}

	s.logger.Info("User blocked",
		zap.Int64("userID", entry.UserID),
		zap.Int64("chatID", entry.ChatID),
		zap.Time("until", entry.EndTime),
		zap.Int64("by", entry.CreatedBy))

	return nil
}

// Unblock lifts a block and reports whether one existed.
func (s *ModerationService) Unblock(ctx context.Context, userID, chatID int64) (bool, error) {
	ok, err := s.block.Delete(ctx, userID, chatID)
	if err != nil {
		return false, types.WrapStore("unblock", err)
	}

	return ok, nil
}

// IsBlocked reports whether the user may not play in the chat at now. The
// static deny list and global blocks apply to every chat.
func (s *ModerationService) IsBlocked(ctx context.Context, userID, chatID int64, now time.Time) (bool, error) {
	if _, ok := s.blockedIDs[userID]; ok {
		return true, nil
	}

	entries, err := s.block.ListForUser(ctx, userID, chatID)
	if err != nil {
		return false, types.WrapStore("is blocked", err)
	}

	for _, entry := range entries {
		if entry.Active(now) {
			return true, nil
		}
	}

	return false, nil
}
