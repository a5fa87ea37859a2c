package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/rating"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const textHelp = `🎰 <b>Casino</b>
Throw 🎰 🎲 🎯 🏀 ⚽ 🎳 or use /slots /dice /dart /bask /foot /bowl.

/stats - your results in this chat
/top [game] [day|week] [wins|tries|jackpots|winrate|streaks] - leaderboard
/notify - turn win congratulations on or off`

const textAdminOnly = "Only admins can do that."

var printer = message.NewPrinter(language.English)

// handleCommand routes a bot command.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()

	if name, err := enum.GameString(command); err == nil {
		b.handleGameCommand(ctx, msg, name)
		return
	}

	switch command {
	case "start", "help":
		b.reply(msg, textHelp)
	case "stats":
		b.handleStats(ctx, msg)
	case "top":
		b.handleTop(ctx, msg)
	case "notify":
		b.handleNotify(ctx, msg)
	case "reset_user", "reset_chat", "reset_all", "block", "unblock":
		b.handleAdmin(ctx, msg, command)
	}
}

// handleStats shows the caller's lifetime results in the chat.
func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	tries, err := b.stats.GetCounters(ctx, enum.CounterTableTries, userID, chatID)
	if err != nil {
		b.fail(msg, "get tries", err)
		return
	}

	wins, err := b.stats.GetCounters(ctx, enum.CounterTableWins, userID, chatID)
	if err != nil {
		b.fail(msg, "get wins", err)
		return
	}

	jackpots, err := b.stats.GetCounters(ctx, enum.CounterTableJackpots, userID, chatID)
	if err != nil {
		b.fail(msg, "get jackpots", err)
		return
	}

	streaks, err := b.stats.GetStreaks(ctx, chatID, nil)
	if err != nil {
		b.fail(msg, "get streaks", err)
		return
	}

	best := make(map[enum.Game]int64)

	for _, s := range streaks {
		if s.UserID == userID {
			best[s.Game] = s.BestStreak
		}
	}

	var sb strings.Builder

	sb.WriteString(printer.Sprintf("📊 <b>%s</b> in this chat\n", html.EscapeString(senderName(msg.From))))

	if tries.Total() == 0 {
		sb.WriteString("No rolls yet.")
		b.reply(msg, sb.String())

		return
	}

	for _, def := range b.registry.All() {
		t := tries.Get(def.Name)
		if t == 0 {
			continue
		}

		w := wins.Get(def.Name)
		sb.WriteString(printer.Sprintf("%s %s: %d wins / %d tries (%.1f%%), best streak %d\n",
			def.Key, def.Title, w, t, float64(w)*100/float64(t), best[def.Name]))
	}

	if jp := jackpots.Get(enum.GameSlots); jp > 0 {
		sb.WriteString(printer.Sprintf("⭐ Jackpots: %d\n", jp))
	}

	b.reply(msg, strings.TrimRight(sb.String(), "\n"))
}

// handleTop renders a leaderboard and the caller's rank in it.
func (b *Bot) handleTop(ctx context.Context, msg *tgbotapi.Message) {
	q, err := b.parseTopArgs(msg.Chat.ID, msg.CommandArguments())
	if err != nil {
		b.reply(msg, html.EscapeString(err.Error()))
		return
	}

	entries, err := b.rating.Build(ctx, q, b.now())
	if err != nil {
		b.fail(msg, "build rating", err)
		return
	}

	rank, ok := rating.FindRank(msg.From.ID, entries)

	text := html.EscapeString(rating.Format(q, entries, b.cfg.RatingTop)) +
		"\n\nYour rank: " + rating.RankLabel(rank, ok)

	b.reply(msg, text)
}

// parseTopArgs reads "[game] [day|week] [criterion]" in any order.
func (b *Bot) parseTopArgs(chatID int64, args string) (rating.Query, error) {
	q := rating.Query{
		ChatID:    chatID,
		Game:      enum.GameSlots,
		Period:    enum.PeriodDay,
		Criterion: enum.CriterionWins,
	}

	for _, arg := range strings.Fields(strings.ToLower(args)) {
		if def, ok := b.registry.ByEmoji(arg); ok {
			q.Game = def.Name
			continue
		}

		if g, err := enum.GameString(arg); err == nil {
			q.Game = g
			continue
		}

		if p, err := enum.PeriodString(arg); err == nil {
			q.Period = p
			continue
		}

		if c, err := enum.CriterionString(arg); err == nil {
			q.Criterion = c
			continue
		}

		return q, fmt.Errorf("%w: /top [game] [day|week] [wins|tries|jackpots|winrate|streaks], unknown %q",
			ErrUsage, arg)
	}

	return q, nil
}

// handleNotify toggles win congratulations for the caller.
func (b *Bot) handleNotify(ctx context.Context, msg *tgbotapi.Message) {
	if _, err := b.users.Ensure(ctx, msg.From.ID, senderName(msg.From), b.now()); err != nil {
		b.fail(msg, "ensure user", err)
		return
	}

	enabled, err := b.users.ToggleCongratulate(ctx, msg.From.ID)
	if err != nil {
		b.fail(msg, "toggle congratulate", err)
		return
	}

	if enabled {
		b.reply(msg, "🔔 Win congratulations are on.")
	} else {
		b.reply(msg, "🔕 Win congratulations are off.")
	}
}

// fail logs err and tells the caller the command failed.
func (b *Bot) fail(msg *tgbotapi.Message, op string, err error) {
	b.logger.Error("Command failed",
		zap.String("op", op),
		zap.String("command", msg.Command()),
		zap.Int64("chatID", msg.Chat.ID),
		zap.Error(err))

	b.reply(msg, "❌ Failed, please try again later.")
}
