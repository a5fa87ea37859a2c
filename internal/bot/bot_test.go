package bot

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/luckyroll/casino/internal/casino"
	"github.com/luckyroll/casino/internal/database"
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/game"
	"github.com/luckyroll/casino/internal/ratelimit"
	"github.com/luckyroll/casino/internal/rating"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminID  int64 = 1
	playerID int64 = 2
	chatID   int64 = -1000
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// fakeAPI records outgoing requests. Dice always land on diceValue.
type fakeAPI struct {
	mu        sync.Mutex
	diceValue int
	nextID    int
	texts     []string
	dice      []string
	deleted   []int
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	sent := tgbotapi.Message{MessageID: a.nextID}

	switch cfg := c.(type) {
	case tgbotapi.MessageConfig:
		a.texts = append(a.texts, cfg.Text)
	case tgbotapi.DiceConfig:
		a.dice = append(a.dice, cfg.Emoji)
		sent.Dice = &tgbotapi.Dice{Emoji: cfg.Emoji, Value: a.diceValue}
	}

	return sent, nil
}

func (a *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cfg, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		a.deleted = append(a.deleted, cfg.MessageID)
	}

	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (a *fakeAPI) lastText() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.texts) == 0 {
		return ""
	}

	return a.texts[len(a.texts)-1]
}

type fixture struct {
	bot       *Bot
	api       *fakeAPI
	client    database.Client
	processor *casino.Processor
}

func setup(t *testing.T) *fixture {
	t.Helper()

	return setupWithPolicy(t, ratelimit.Policy{})
}

func setupWithPolicy(t *testing.T, policy ratelimit.Policy) *fixture {
	t.Helper()

	dbCfg := &config.Database{
		Driver: config.DriverSQLite,
		SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "bot.db")},
	}

	client, err := database.NewConnection(
		t.Context(), dbCfg, service.Settings{AdminIDs: []int64{adminID}}, zap.NewNop(), true,
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	api := &fakeAPI{diceValue: 1}
	registry := game.DefaultRegistry()
	stats := client.Service().Stats()

	processor := casino.NewProcessor(
		registry,
		stats,
		client.Service().Moderation(),
		client.Model().User(),
		ratelimit.NewMemory(policy, zap.NewNop()),
		NewNotifier(api),
		casino.Options{StreakMilestones: config.DefaultStreakMilestones(), Now: func() time.Time { return fixedNow }},
		zap.NewNop(),
	)
	t.Cleanup(processor.Close)

	cfg := config.Default().Bot
	b := New(
		api, processor, registry, stats, client.Service().Moderation(), client.Model().User(),
		rating.NewBuilder(stats, client.Model().User(), nil, zap.NewNop()),
		&cfg, zap.NewNop(),
	)
	b.now = func() time.Time { return fixedNow }

	return &fixture{bot: b, api: api, client: client, processor: processor}
}

func command(from int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]

	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: from, FirstName: "Player"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func dice(from int64, emoji string, value int) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 11,
		From:      &tgbotapi.User{ID: from, FirstName: "Player"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Dice:      &tgbotapi.Dice{Emoji: emoji, Value: value},
	}}
}

func (f *fixture) tries(t *testing.T, userID int64, g enum.Game) int64 {
	t.Helper()

	counters, err := f.client.Service().Stats().GetCounters(t.Context(), enum.CounterTableTries, userID, chatID)
	require.NoError(t, err)

	return counters.Get(g)
}

func TestDiceMessageIsScored(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := t.Context()

	f.bot.HandleUpdate(ctx, dice(playerID, "🎲", 6))

	forwarded := dice(playerID, "🎲", 6)
	forwarded.Message.ForwardFrom = &tgbotapi.User{ID: 99}
	f.bot.HandleUpdate(ctx, forwarded)

	f.processor.Wait()
	assert.Equal(t, int64(1), f.tries(t, playerID, enum.GameDice))
	assert.Equal(t, "🤑 <b>Win!</b> Congratulations.", f.api.lastText())
}

func TestInvalidDiceIsReported(t *testing.T) {
	t.Parallel()

	f := setup(t)

	f.bot.HandleUpdate(t.Context(), dice(playerID, "🎲", 9))
	assert.Equal(t, textInvalidRoll, f.api.lastText())
}

func TestGameCommandThrowsDice(t *testing.T) {
	t.Parallel()

	f := setup(t)
	f.api.diceValue = 64
	ctx := t.Context()

	f.bot.HandleUpdate(ctx, command(playerID, "/slots"))
	f.processor.Wait()

	assert.Equal(t, []string{"🎰"}, f.api.dice)

	jackpots, err := f.client.Service().Stats().GetCounters(ctx, enum.CounterTableJackpots, playerID, chatID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), jackpots.Get(enum.GameSlots))
}

func TestGameCommandRespectsCooldown(t *testing.T) {
	t.Parallel()

	f := setupWithPolicy(t, ratelimit.Policy{Default: time.Hour})
	ctx := t.Context()

	for range 5 {
		f.bot.HandleUpdate(ctx, command(playerID, "/slots"))
	}

	// A dice message shares the cooldown
	f.bot.HandleUpdate(ctx, dice(playerID, "🎰", 1))
	f.processor.Wait()

	assert.Equal(t, []string{"🎰"}, f.api.dice)
	assert.Equal(t, int64(1), f.tries(t, playerID, enum.GameSlots))
}

func TestGameCommandBlockedUser(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := t.Context()

	err := f.client.Service().Moderation().Block(ctx, &types.BlockEntry{
		UserID: playerID, ChatID: chatID, Reason: "spam", EndTime: fixedNow.Add(time.Hour),
	})
	require.NoError(t, err)

	f.bot.HandleUpdate(ctx, command(playerID, "/slots"))
	f.processor.Wait()

	assert.Empty(t, f.api.dice)
	assert.Equal(t, int64(0), f.tries(t, playerID, enum.GameSlots))
}

func TestTopAndStats(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := t.Context()

	f.bot.HandleUpdate(ctx, dice(playerID, "🏀", 5))
	f.bot.HandleUpdate(ctx, dice(playerID, "🏀", 1))
	f.processor.Wait()

	f.bot.HandleUpdate(ctx, command(playerID, "/top 🏀 week winrate"))
	assert.Equal(t, "Top bask by winrate (week)\n1. Player: 50.0%\n\nYour rank: 1", f.api.lastText())

	f.bot.HandleUpdate(ctx, command(adminID, "/top bask"))
	assert.Contains(t, f.api.lastText(), "Your rank: "+rating.Unranked)

	f.bot.HandleUpdate(ctx, command(playerID, "/stats"))
	assert.Contains(t, f.api.lastText(), "1 wins / 2 tries (50.0%), best streak 1")

	f.bot.HandleUpdate(ctx, command(playerID, "/top roulette"))
	assert.Contains(t, f.api.lastText(), "unknown")
}

func TestNotifyToggles(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := t.Context()

	f.bot.HandleUpdate(ctx, command(playerID, "/notify"))
	assert.Equal(t, "🔕 Win congratulations are off.", f.api.lastText())

	f.bot.HandleUpdate(ctx, command(playerID, "/notify"))
	assert.Equal(t, "🔔 Win congratulations are on.", f.api.lastText())
}

func TestAdminCommands(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := t.Context()

	f.bot.HandleUpdate(ctx, dice(playerID, "🎯", 1))
	f.processor.Wait()
	require.Equal(t, int64(1), f.tries(t, playerID, enum.GameDart))

	f.bot.HandleUpdate(ctx, command(playerID, "/reset_chat"))
	assert.Equal(t, textAdminOnly, f.api.lastText())
	assert.Equal(t, int64(1), f.tries(t, playerID, enum.GameDart))

	f.bot.HandleUpdate(ctx, command(adminID, "/reset_user 2"))
	assert.Contains(t, f.api.lastText(), "Reset user 2")
	assert.Equal(t, int64(0), f.tries(t, playerID, enum.GameDart))

	f.bot.HandleUpdate(ctx, command(adminID, "/block 2 30 spamming"))
	assert.Contains(t, f.api.lastText(), "User 2 is blocked")

	f.bot.HandleUpdate(ctx, dice(playerID, "🎯", 1))
	f.processor.Wait()
	assert.Equal(t, int64(0), f.tries(t, playerID, enum.GameDart))

	f.bot.HandleUpdate(ctx, command(adminID, "/unblock 2"))
	assert.Contains(t, f.api.lastText(), "User 2 is unblocked")

	f.bot.HandleUpdate(ctx, dice(playerID, "🎯", 1))
	f.processor.Wait()
	assert.Equal(t, int64(1), f.tries(t, playerID, enum.GameDart))

	f.bot.HandleUpdate(ctx, command(adminID, "/block 2"))
	assert.Contains(t, f.api.lastText(), "usage")
}

func TestParseTopArgs(t *testing.T) {
	t.Parallel()

	b := &Bot{registry: game.DefaultRegistry()}

	q, err := b.parseTopArgs(chatID, "")
	require.NoError(t, err)
	assert.Equal(t, rating.Query{ChatID: chatID, Game: enum.GameSlots, Period: enum.PeriodDay, Criterion: enum.CriterionWins}, q)

	q, err = b.parseTopArgs(chatID, "STREAKS ⚽ week")
	require.NoError(t, err)
	assert.Equal(t, rating.Query{ChatID: chatID, Game: enum.GameFoot, Period: enum.PeriodWeek, Criterion: enum.CriterionStreaks}, q)

	_, err = b.parseTopArgs(chatID, "month")
	require.ErrorIs(t, err, ErrUsage)
}
