package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/luckyroll/casino/internal/database/types"
	"go.uber.org/zap"
)

// handleAdmin runs destructive commands after the admin check.
func (b *Bot) handleAdmin(ctx context.Context, msg *tgbotapi.Message, command string) {
	isAdmin, err := b.moderation.IsAdmin(ctx, msg.From.ID)
	if err != nil {
		b.fail(msg, "is admin", err)
		return
	}

	if !isAdmin {
		b.reply(msg, textAdminOnly)
		return
	}

	b.logger.Info("Admin command",
		zap.String("command", command),
		zap.Int64("adminID", msg.From.ID),
		zap.Int64("chatID", msg.Chat.ID),
		zap.String("args", msg.CommandArguments()))

	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch command {
	case "reset_user":
		userID, err := targetUser(msg, args)
		if err != nil {
			b.reply(msg, html.EscapeString(err.Error()))
			return
		}

		rows, err := b.stats.ResetUser(ctx, userID, chatID)
		if err != nil {
			b.fail(msg, "reset user", err)
			return
		}

		b.rating.Invalidate(ctx, &chatID)
		b.reply(msg, fmt.Sprintf("🧹 Reset user %d in this chat (%d rows).", userID, rows))

	case "reset_chat":
		rows, err := b.stats.ResetChat(ctx, chatID)
		if err != nil {
			b.fail(msg, "reset chat", err)
			return
		}

		b.rating.Invalidate(ctx, &chatID)
		b.reply(msg, fmt.Sprintf("🧹 Reset this chat (%d rows).", rows))

	case "reset_all":
		rows, err := b.stats.ResetAll(ctx)
		if err != nil {
			b.fail(msg, "reset all", err)
			return
		}

		b.rating.Invalidate(ctx, nil)
		b.reply(msg, fmt.Sprintf("🧹 Reset every chat (%d rows).", rows))

	case "block":
		entry, err := parseBlock(msg, args, b.now())
		if err != nil {
			b.reply(msg, html.EscapeString(err.Error()))
			return
		}

		if err := b.moderation.Block(ctx, entry); err != nil {
			b.fail(msg, "block", err)
			return
		}

		b.reply(msg, fmt.Sprintf("⛔ User %d is blocked in this chat until %s.",
			entry.UserID, entry.EndTime.Format(time.RFC3339)))

	case "unblock":
		userID, err := targetUser(msg, args)
		if err != nil {
			b.reply(msg, html.EscapeString(err.Error()))
			return
		}

		removed, err := b.moderation.Unblock(ctx, userID, chatID)
		if err != nil {
			b.fail(msg, "unblock", err)
			return
		}

		if removed {
			b.reply(msg, fmt.Sprintf("✅ User %d is unblocked in this chat.", userID))
		} else {
			b.reply(msg, fmt.Sprintf("User %d was not blocked in this chat.", userID))
		}
	}
}

// targetUser reads the user ID argument, falling back to the author of the
// replied-to message.
func targetUser(msg *tgbotapi.Message, args []string) (int64, error) {
	if len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: /%s <user id>", ErrUsage, msg.Command())
		}

		return id, nil
	}

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return msg.ReplyToMessage.From.ID, nil
	}

	return 0, fmt.Errorf("%w: /%s <user id>", ErrUsage, msg.Command())
}

// parseBlock reads "/block <user id> <minutes> [reason]".
func parseBlock(msg *tgbotapi.Message, args []string, now time.Time) (*types.BlockEntry, error) {
	usage := fmt.Errorf("%w: /block <user id> <minutes> [reason]", ErrUsage)

	if len(args) < 2 {
		return nil, usage
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, usage
	}

	minutes, err := strconv.Atoi(args[1])
	if err != nil || minutes <= 0 {
		return nil, usage
	}

	return &types.BlockEntry{
		UserID:    userID,
		ChatID:    msg.Chat.ID,
		Reason:    strings.Join(args[2:], " "),
		EndTime:   now.Add(time.Duration(minutes) * time.Minute),
		CreatedBy: msg.From.ID,
		CreatedAt: now,
	}, nil
}
