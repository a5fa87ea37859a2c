// Package bot is the Telegram transport. It turns updates into roll events
// and commands and renders replies as HTML messages.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/luckyroll/casino/internal/casino"
	"github.com/luckyroll/casino/internal/database/models"
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/luckyroll/casino/internal/game"
	"github.com/luckyroll/casino/internal/rating"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Updater delivers updates by long polling.
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot dispatches Telegram updates.
type Bot struct {
	api        API
	processor  *casino.Processor
	registry   *game.Registry
	stats      *service.StatsService
	moderation *service.ModerationService
	users      *models.UserModel
	rating     *rating.Builder
	cfg        *config.BotConfig
	logger     *zap.Logger
	now        func() time.Time
}

// New creates the Telegram bot.
func New(
	api API,
	processor *casino.Processor,
	registry *game.Registry,
	stats *service.StatsService,
	moderation *service.ModerationService,
	users *models.UserModel,
	ratingBuilder *rating.Builder,
	cfg *config.BotConfig,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:        api,
		processor:  processor,
		registry:   registry,
		stats:      stats,
		moderation: moderation,
		users:      users,
		rating:     ratingBuilder,
		cfg:        cfg,
		logger:     logger.Named("telegram"),
		now:        time.Now,
	}
}

// Run polls for updates until ctx ends. Each update is handled on a bounded
// worker pool; Run returns once the in-flight handlers have finished.
func (b *Bot) Run(ctx context.Context, updater Updater) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.Telegram.PollTimeout

	updates := updater.GetUpdatesChan(u)

	workers := max(b.cfg.Telegram.Workers, 1)
	p := pool.New().WithMaxGoroutines(workers)

	b.logger.Info("Polling for updates", zap.Int("workers", workers))

	defer func() {
		updater.StopReceivingUpdates()
		p.Wait()
		b.logger.Info("Stopped polling")
	}()

	// Handlers finish their roll even when shutdown starts
	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("%w: update channel closed", ErrPollingStopped)
			}

			p.Go(func() {
				b.HandleUpdate(handlerCtx, update)
			})
		}
	}
}

// HandleUpdate routes one update. Panics are logged and swallowed.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic in update handler",
				zap.Int("updateID", update.UpdateID),
				zap.Any("panic", r))
		}

		b.logger.Debug("Update handled",
			zap.Int("updateID", update.UpdateID),
			zap.Duration("duration", time.Since(start)))
	}()

	switch {
	case msg.Dice != nil:
		b.handleDice(ctx, msg)
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	}
}

// reply sends an HTML message in reply to msg.
func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyToMessageID = msg.MessageID
	out.DisableWebPagePreview = true

	if _, err := b.api.Send(out); err != nil {
		b.logger.Warn("Failed to send reply",
			zap.Int64("chatID", msg.Chat.ID),
			zap.Error(err))
	}
}

// isForwarded reports whether msg replays someone else's message.
func isForwarded(msg *tgbotapi.Message) bool {
	return msg.ForwardFrom != nil || msg.ForwardFromChat != nil || msg.ForwardDate != 0 || msg.ForwardSenderName != ""
}
