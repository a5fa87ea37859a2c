package casino

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/luckyroll/casino/internal/database/models"
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/game"
	"github.com/luckyroll/casino/internal/ratelimit"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/luckyroll/casino/pkg/utils"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Options tunes the notifications of the processor.
type Options struct {
	CongratulateDelay time.Duration
	StreakMilestones  []int
	Triggers          []*Trigger
	WarnRateLimited   bool
	WarnTTL           time.Duration
	// Now is the clock used for scoring. Defaults to time.Now.
	Now func() time.Time
}

// NewOptions builds processor options from the bot config.
func NewOptions(cfg *config.BotConfig) (Options, error) {
	triggers, err := CompileTriggers(cfg.Triggers)
	if err != nil {
		return Options{}, err
	}

	return Options{
		CongratulateDelay: time.Duration(cfg.CongratulateDelay) * time.Millisecond,
		StreakMilestones:  cfg.StreakMilestones,
		Triggers:          triggers,
		WarnRateLimited:   cfg.RateLimit.Warn,
		WarnTTL:           time.Duration(cfg.RateLimit.WarnTTL) * time.Millisecond,
	}, nil
}

// Processor scores rolls and schedules their notifications.
type Processor struct {
	registry   *game.Registry
	stats      *service.StatsService
	moderation *service.ModerationService
	users      *models.UserModel
	limiter    ratelimit.Limiter
	notifier   Notifier
	opts       Options
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

// NewProcessor creates a roll processor.
func NewProcessor(
	registry *game.Registry,
	stats *service.StatsService,
	moderation *service.ModerationService,
	users *models.UserModel,
	limiter ratelimit.Limiter,
	notifier Notifier,
	opts Options,
	logger *zap.Logger,
) *Processor {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		registry:   registry,
		stats:      stats,
		moderation: moderation,
		users:      users,
		limiter:    limiter,
		notifier:   notifier,
		opts:       opts,
		logger:     logger.Named("casino"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Admission is a roll that passed the gates and holds a cooldown window.
// Event may be completed with the thrown dice before it is scored.
type Admission struct {
	Event RollEvent
	At    time.Time
}

// Process runs one roll through the pipeline. A *game.ValidationError is
// returned for unknown games and out of range values, a *types.StoreError when
// storage fails. Neither leaves partial counts behind.
func (p *Processor) Process(ctx context.Context, ev RollEvent) (*Result, error) {
	if ev.Forwarded {
		return &Result{Status: StatusForwarded}, nil
	}

	def, err := p.registry.Resolve(ev.GameKey, ev.Value)
	if err != nil {
		return &Result{Status: StatusInvalid}, err
	}

	adm, result, err := p.Admit(ctx, ev)
	if adm == nil {
		result.Game = def.Name
		return result, err
	}

	return p.Score(ctx, adm)
}

// Admit runs the gates a roll passes before it is scored: forwarding, blocks
// and the cooldown. The game value is not needed, so the bot can ask before it
// throws a dice. A nil Admission comes with the result that rejected the roll.
func (p *Processor) Admit(ctx context.Context, ev RollEvent) (*Admission, *Result, error) {
	if ev.Forwarded {
		return nil, &Result{Status: StatusForwarded}, nil
	}

	now := p.opts.Now()

	blocked, err := p.moderation.IsBlocked(ctx, ev.UserID, ev.ChatID, now)
	if err != nil {
		return nil, &Result{Status: StatusFailed}, err
	}

	if blocked {
		return nil, &Result{Status: StatusBlocked}, nil
	}

	admitted, err := p.limiter.Admit(ctx, limiterKey(ev), now)
	if err != nil {
		return nil, &Result{Status: StatusFailed}, fmt.Errorf("rate limiter: %w", err)
	}

	if !admitted {
		p.warnRateLimited(ev)
		return nil, &Result{Status: StatusRateLimited}, nil
	}

	return &Admission{Event: ev, At: now}, nil, nil
}

// Score validates and stores an admitted roll, then schedules its
// notifications. The cooldown window is released when nothing was stored.
func (p *Processor) Score(ctx context.Context, adm *Admission) (*Result, error) {
	ev := adm.Event

	def, err := p.registry.Resolve(ev.GameKey, ev.Value)
	if err != nil {
		p.Release(ctx, adm)
		return &Result{Status: StatusInvalid}, err
	}

	result := &Result{Game: def.Name, Outcome: game.Evaluate(def, ev.Value)}

	user, err := p.users.Ensure(ctx, ev.UserID, utils.SanitizeName(ev.UserName), adm.At)
	if err != nil {
		p.Release(ctx, adm)
		result.Status = StatusFailed

		return result, types.WrapStore("ensure user", err)
	}

	result.Streak, err = p.stats.RecordRoll(ctx, types.RollRecord{
		UserID:  ev.UserID,
		ChatID:  ev.ChatID,
		Game:    def.Name,
		Outcome: result.Outcome,
		At:      adm.At,
	})
	if err != nil {
		p.Release(ctx, adm)
		result.Status = StatusFailed

		return result, err
	}

	result.Status = StatusScored

	p.logger.Debug("Roll scored",
		zap.Int64("userID", ev.UserID),
		zap.Int64("chatID", ev.ChatID),
		zap.String("game", def.Name.String()),
		zap.Int("value", ev.Value),
		zap.String("outcome", result.Outcome.String()),
		zap.Int64("streak", result.Streak.Current))

	p.schedule(ev, def, user, result)

	return result, nil
}

// Release gives back the cooldown window of an admitted roll that was not scored.
func (p *Processor) Release(ctx context.Context, adm *Admission) {
	if err := p.limiter.Release(context.WithoutCancel(ctx), limiterKey(adm.Event), adm.At); err != nil {
		p.logger.Warn("Failed to release cooldown",
			zap.Int64("userID", adm.Event.UserID),
			zap.Int64("chatID", adm.Event.ChatID),
			zap.Error(err))
	}
}

func limiterKey(ev RollEvent) ratelimit.Key {
	return ratelimit.Key{UserID: ev.UserID, ChatID: ev.ChatID}
}

// Wait blocks until all scheduled notifications are done.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Close cancels pending notification delays and waits for in-flight sends.
func (p *Processor) Close() {
	p.cancel()
	p.wg.Wait()
}

// IsValidation reports whether err came from roll validation.
func IsValidation(err error) bool {
	var verr *game.ValidationError
	return errors.As(err, &verr)
}

// schedule queues the messages a scored roll earns. They are sent after the
// congratulation delay so the dice animation finishes first.
func (p *Processor) schedule(ev RollEvent, def *game.Definition, user *types.User, result *Result) {
	messages := p.buildMessages(ev, def, user, result)
	if len(messages) == 0 {
		return
	}

	p.wg.Go(func() {
		if utils.ContextSleep(p.ctx, p.opts.CongratulateDelay) == utils.SleepCancelled {
			return
		}

		for _, msg := range messages {
			if _, err := p.notifier.Send(p.ctx, msg); err != nil {
				p.logger.Warn("Failed to send notification",
					zap.Int64("chatID", msg.ChatID),
					zap.Error(err))
			}
		}
	})
}

func (p *Processor) buildMessages(ev RollEvent, def *game.Definition, user *types.User, result *Result) []Message {
	var texts []string

	if result.Outcome.IsWin() && user.Congratulate {
		if result.Outcome == enum.OutcomeJackpot {
			texts = append(texts, fmt.Sprintf(textJackpot, html.EscapeString(user.Name)))
		} else {
			texts = append(texts, textWin)
		}
	}

	if level := milestoneLevel(result.Streak, p.opts.StreakMilestones); level > 0 {
		texts = append(texts, streakText(user.Name, result.Streak.Current, level))
	}

	if len(p.opts.Triggers) > 0 {
		data := &TriggerData{
			UserID:  ev.UserID,
			Name:    html.EscapeString(user.Name),
			ChatID:  ev.ChatID,
			Game:    def.Name.String(),
			Emoji:   def.Key,
			Value:   ev.Value,
			Outcome: result.Outcome.String(),
			Streak:  result.Streak.Current,
			Best:    result.Streak.Best,
		}

		for _, trigger := range p.opts.Triggers {
			if !trigger.Matches(data) {
				continue
			}

			text, err := trigger.Render(data)
			if err != nil {
				p.logger.Warn("Failed to render trigger", zap.Error(err))
				continue
			}

			texts = append(texts, text)
		}
	}

	messages := make([]Message, 0, len(texts))
	for _, text := range texts {
		messages = append(messages, Message{
			ChatID:   ev.ChatID,
			ThreadID: ev.ThreadID,
			ReplyTo:  ev.MessageID,
			Text:     text,
		})
	}

	return messages
}

// warnRateLimited posts a warning and deletes it after WarnTTL.
func (p *Processor) warnRateLimited(ev RollEvent) {
	if !p.opts.WarnRateLimited {
		return
	}

	p.wg.Go(func() {
		name := html.EscapeString(utils.SanitizeName(ev.UserName))

		id, err := p.notifier.Send(p.ctx, Message{
			ChatID:   ev.ChatID,
			ThreadID: ev.ThreadID,
			ReplyTo:  ev.MessageID,
			Text:     fmt.Sprintf(textRateLimited, name),
		})
		if err != nil {
			p.logger.Warn("Failed to send rate limit warning", zap.Error(err))
			return
		}

		// Delete even when shutting down so the warning does not linger
		utils.ContextSleep(p.ctx, p.opts.WarnTTL)

		if err := p.notifier.Delete(context.WithoutCancel(p.ctx), ev.ChatID, id); err != nil {
			p.logger.Warn("Failed to delete rate limit warning", zap.Error(err))
		}
	})
}
