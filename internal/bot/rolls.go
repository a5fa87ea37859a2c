package bot

import (
	"context"
	"errors"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/luckyroll/casino/internal/casino"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/pkg/utils"
	"go.uber.org/zap"
)

const (
	textInvalidRoll = "Invalid roll."
	textNotCounted  = "Something went wrong, this roll was not counted."
)

// handleDice scores a dice the user threw themselves.
func (b *Bot) handleDice(ctx context.Context, msg *tgbotapi.Message) {
	b.process(ctx, msg, casino.RollEvent{
		UserID:    msg.From.ID,
		UserName:  senderName(msg.From),
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		GameKey:   msg.Dice.Emoji,
		Value:     msg.Dice.Value,
		Forwarded: isForwarded(msg),
	})
}

// handleGameCommand throws a dice for the caller and scores its value. The
// roll is admitted first so blocked or cooling down users get no dice.
func (b *Bot) handleGameCommand(ctx context.Context, msg *tgbotapi.Message, name enum.Game) {
	if isForwarded(msg) {
		return
	}

	def, ok := b.registry.ByName(name)
	if !ok {
		b.reply(msg, textInvalidRoll)
		return
	}

	ev := casino.RollEvent{
		UserID:    msg.From.ID,
		UserName:  senderName(msg.From),
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}

	adm, result, err := b.processor.Admit(ctx, ev)
	if adm == nil {
		b.report(msg, ev, result, err)
		return
	}

	dice := tgbotapi.NewDiceWithEmoji(msg.Chat.ID, def.Key)
	dice.ReplyToMessageID = msg.MessageID

	sent, err := b.api.Send(dice)
	if err != nil {
		b.processor.Release(ctx, adm)
		b.logger.Warn("Failed to send dice", zap.String("game", name.String()), zap.Error(err))

		return
	}

	if sent.Dice == nil {
		b.processor.Release(ctx, adm)
		b.logger.Warn("Sent dice has no value", zap.Int("messageID", sent.MessageID))

		return
	}

	adm.Event.MessageID = sent.MessageID
	adm.Event.GameKey = sent.Dice.Emoji
	adm.Event.Value = sent.Dice.Value

	result, err = b.processor.Score(ctx, adm)
	b.report(msg, adm.Event, result, err)
}

// process runs the roll pipeline on a dice the user threw.
func (b *Bot) process(ctx context.Context, msg *tgbotapi.Message, ev casino.RollEvent) {
	result, err := b.processor.Process(ctx, ev)
	b.report(msg, ev, result, err)
}

// report tells the chat about rolls that failed. Rejected and blocked rolls
// stay silent.
func (b *Bot) report(msg *tgbotapi.Message, ev casino.RollEvent, result *casino.Result, err error) {
	if err == nil {
		return
	}

	if casino.IsValidation(err) {
		b.reply(msg, textInvalidRoll)
		return
	}

	b.logger.Error("Roll not counted",
		zap.Int64("userID", ev.UserID),
		zap.Int64("chatID", ev.ChatID),
		zap.String("status", result.Status.String()),
		zap.Error(err))

	var storeErr *types.StoreError
	if errors.As(err, &storeErr) {
		b.reply(msg, textNotCounted)
	}
}

// senderName returns the display name of a Telegram user.
func senderName(u *tgbotapi.User) string {
	return utils.DisplayName(u.FirstName, u.LastName, u.UserName, "id"+strconv.FormatInt(u.ID, 10))
}
