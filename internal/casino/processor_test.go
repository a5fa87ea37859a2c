package casino_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luckyroll/casino/internal/casino"
	"github.com/luckyroll/casino/internal/database"
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/game"
	"github.com/luckyroll/casino/internal/ratelimit"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testUser    int64 = 42
	testChat    int64 = -100
	blockedUser int64 = 666
)

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []casino.Message
	deleted []int
}

func (n *fakeNotifier) Send(_ context.Context, msg casino.Message) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, msg)

	return len(n.sent), nil
}

func (n *fakeNotifier) Delete(_ context.Context, _ int64, messageID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.deleted = append(n.deleted, messageID)

	return nil
}

func (n *fakeNotifier) texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	texts := make([]string, len(n.sent))
	for i, msg := range n.sent {
		texts[i] = msg.Text
	}

	return texts
}

// countingLimiter admits everything and counts calls.
type countingLimiter struct {
	calls    atomic.Int32
	releases atomic.Int32
}

func (l *countingLimiter) Admit(context.Context, ratelimit.Key, time.Time) (bool, error) {
	l.calls.Add(1)
	return true, nil
}

func (l *countingLimiter) Release(context.Context, ratelimit.Key, time.Time) error {
	l.releases.Add(1)
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fixture struct {
	client    database.Client
	processor *casino.Processor
	notifier  *fakeNotifier
	clock     *clock
}

func setup(t *testing.T, limiter ratelimit.Limiter, opts casino.Options) *fixture {
	t.Helper()

	cfg := &config.Database{
		Driver: config.DriverSQLite,
		SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "casino.db")},
	}

	client, err := database.NewConnection(
		t.Context(), cfg, service.Settings{BlockedIDs: []int64{blockedUser}}, zap.NewNop(), true,
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	if limiter == nil {
		limiter = ratelimit.NewMemory(ratelimit.Policy{Default: 300 * time.Millisecond}, zap.NewNop())
	}

	c := &clock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	opts.Now = c.Now
	if opts.StreakMilestones == nil {
		opts.StreakMilestones = config.DefaultStreakMilestones()
	}

	notifier := &fakeNotifier{}
	processor := casino.NewProcessor(
		game.DefaultRegistry(),
		client.Service().Stats(),
		client.Service().Moderation(),
		client.Model().User(),
		limiter,
		notifier,
		opts,
		zap.NewNop(),
	)
	t.Cleanup(processor.Close)

	return &fixture{client: client, processor: processor, notifier: notifier, clock: c}
}

func roll(key string, value int) casino.RollEvent {
	return casino.RollEvent{UserID: testUser, UserName: "Lucky", ChatID: testChat, MessageID: 7, GameKey: key, Value: value}
}

func TestProcessScoresRoll(t *testing.T) {
	t.Parallel()

	f := setup(t, nil, casino.Options{})
	ctx := t.Context()

	result, err := f.processor.Process(ctx, roll("🎰", 64))
	require.NoError(t, err)
	assert.Equal(t, casino.StatusScored, result.Status)
	assert.Equal(t, enum.OutcomeJackpot, result.Outcome)
	assert.Equal(t, types.StreakState{Current: 1, Best: 1}, result.Streak)

	f.processor.Wait()
	assert.Equal(t, []string{"🎰 <b>JACKPOT!</b> Congratulations, Lucky."}, f.notifier.texts())

	stats := f.client.Service().Stats()
	jackpots, err := stats.GetCounters(ctx, enum.CounterTableJackpots, testUser, testChat)
	require.NoError(t, err)
	assert.Equal(t, int64(1), jackpots.Get(enum.GameSlots))

	user, err := f.client.Model().User().Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "Lucky", user.Name)
	assert.True(t, user.Congratulate)
}

func TestProcessForwardedSkipsLimiter(t *testing.T) {
	t.Parallel()

	limiter := &countingLimiter{}
	f := setup(t, limiter, casino.Options{})

	ev := roll("🎲", 6)
	ev.Forwarded = true

	result, err := f.processor.Process(t.Context(), ev)
	require.NoError(t, err)
	assert.Equal(t, casino.StatusForwarded, result.Status)
	assert.Equal(t, int32(0), limiter.calls.Load())
}

func TestProcessInvalidRoll(t *testing.T) {
	t.Parallel()

	limiter := &countingLimiter{}
	f := setup(t, limiter, casino.Options{})

	tests := []struct {
		name  string
		key   string
		value int
	}{
		{"unknown emoji", "🃏", 1},
		{"value too high", "🎲", 7},
		{"value too low", "🏀", 0},
	}

	for _, tt := range tests {
		result, err := f.processor.Process(t.Context(), roll(tt.key, tt.value))
		require.Error(t, err, tt.name)
		assert.True(t, casino.IsValidation(err), tt.name)
		assert.Equal(t, casino.StatusInvalid, result.Status, tt.name)
	}

	assert.Equal(t, int32(0), limiter.calls.Load())
}

func TestProcessBlockedUser(t *testing.T) {
	t.Parallel()

	limiter := &countingLimiter{}
	f := setup(t, limiter, casino.Options{})
	ctx := t.Context()

	ev := roll("🎲", 6)
	ev.UserID = blockedUser

	result, err := f.processor.Process(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, casino.StatusBlocked, result.Status)

	// Chat block that expires
	err = f.client.Service().Moderation().Block(ctx, &types.BlockEntry{
		UserID: testUser, ChatID: testChat, Reason: "spam", EndTime: f.clock.Now().Add(time.Minute),
	})
	require.NoError(t, err)

	result, err = f.processor.Process(ctx, roll("🎲", 6))
	require.NoError(t, err)
	assert.Equal(t, casino.StatusBlocked, result.Status)
	assert.Equal(t, int32(0), limiter.calls.Load())

	f.clock.Advance(2 * time.Minute)

	result, err = f.processor.Process(ctx, roll("🎲", 6))
	require.NoError(t, err)
	assert.Equal(t, casino.StatusScored, result.Status)
}

func TestProcessRateLimited(t *testing.T) {
	t.Parallel()

	f := setup(t, nil, casino.Options{WarnRateLimited: true})
	ctx := t.Context()

	result, err := f.processor.Process(ctx, roll("🎯", 1))
	require.NoError(t, err)
	assert.Equal(t, casino.StatusScored, result.Status)

	f.clock.Advance(100 * time.Millisecond)

	result, err = f.processor.Process(ctx, roll("🎯", 1))
	require.NoError(t, err)
	assert.Equal(t, casino.StatusRateLimited, result.Status)

	f.processor.Wait()
	assert.Equal(t, []string{"⏳ Not so fast, Lucky."}, f.notifier.texts())
	assert.Equal(t, []int{1}, f.notifier.deleted)

	f.clock.Advance(300 * time.Millisecond)

	result, err = f.processor.Process(ctx, roll("🎯", 1))
	require.NoError(t, err)
	assert.Equal(t, casino.StatusScored, result.Status)

	tries, err := f.client.Service().Stats().GetCounters(ctx, enum.CounterTableTries, testUser, testChat)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tries.Get(enum.GameDart))
}

func TestAdmitBeforeThrow(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewMemory(ratelimit.Policy{Default: time.Hour}, zap.NewNop())
	f := setup(t, limiter, casino.Options{})
	ctx := t.Context()

	// No dice value yet
	ev := casino.RollEvent{UserID: testUser, UserName: "Lucky", ChatID: testChat, MessageID: 7}

	adm, result, err := f.processor.Admit(ctx, ev)
	require.NoError(t, err)
	require.NotNil(t, adm)
	assert.Nil(t, result)

	again, result, err := f.processor.Admit(ctx, ev)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Equal(t, casino.StatusRateLimited, result.Status)

	adm.Event.GameKey = "🏀"
	adm.Event.Value = 5

	result, err = f.processor.Score(ctx, adm)
	require.NoError(t, err)
	assert.Equal(t, casino.StatusScored, result.Status)
	assert.Equal(t, enum.GameBask, result.Game)

	// A dice message shares the window
	result, err = f.processor.Process(ctx, roll("🏀", 5))
	require.NoError(t, err)
	assert.Equal(t, casino.StatusRateLimited, result.Status)
}

func TestAdmitBlockedUser(t *testing.T) {
	t.Parallel()

	limiter := &countingLimiter{}
	f := setup(t, limiter, casino.Options{})

	adm, result, err := f.processor.Admit(t.Context(), casino.RollEvent{UserID: blockedUser, ChatID: testChat})
	require.NoError(t, err)
	assert.Nil(t, adm)
	assert.Equal(t, casino.StatusBlocked, result.Status)
	assert.Equal(t, int32(0), limiter.calls.Load())
}

func TestScoreInvalidReleasesCooldown(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewMemory(ratelimit.Policy{Default: time.Hour}, zap.NewNop())
	f := setup(t, limiter, casino.Options{})
	ctx := t.Context()

	adm, _, err := f.processor.Admit(ctx, casino.RollEvent{UserID: testUser, ChatID: testChat})
	require.NoError(t, err)
	require.NotNil(t, adm)

	adm.Event.GameKey = "🎲"
	adm.Event.Value = 9

	result, err := f.processor.Score(ctx, adm)
	require.Error(t, err)
	assert.True(t, casino.IsValidation(err))
	assert.Equal(t, casino.StatusInvalid, result.Status)

	result, err = f.processor.Process(ctx, roll("🎲", 6))
	require.NoError(t, err)
	assert.Equal(t, casino.StatusScored, result.Status)
}

func TestStoreFailureReleasesCooldown(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewMemory(ratelimit.Policy{Default: time.Hour}, zap.NewNop())
	f := setup(t, limiter, casino.Options{})
	ctx := t.Context()

	_, err := f.client.DB().NewDropTable().Model((*types.TriesRow)(nil)).Exec(ctx)
	require.NoError(t, err)

	result, err := f.processor.Process(ctx, roll("🎲", 6))

	var storeErr *types.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, casino.StatusFailed, result.Status)

	// The failed roll did not start the cooldown
	ok, err := limiter.Admit(ctx, ratelimit.Key{UserID: testUser, ChatID: testChat}, f.clock.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessCongratulationRequiresOptIn(t *testing.T) {
	t.Parallel()

	f := setup(t, &countingLimiter{}, casino.Options{})
	ctx := t.Context()

	_, err := f.client.Model().User().Ensure(ctx, testUser, "Lucky", f.clock.Now())
	require.NoError(t, err)

	enabled, err := f.client.Model().User().ToggleCongratulate(ctx, testUser)
	require.NoError(t, err)
	require.False(t, enabled)

	result, err := f.processor.Process(ctx, roll("⚽", 5))
	require.NoError(t, err)
	assert.Equal(t, enum.OutcomeWin, result.Outcome)

	f.processor.Wait()
	assert.Empty(t, f.notifier.texts())
}

func TestProcessStreakMilestones(t *testing.T) {
	t.Parallel()

	f := setup(t, &countingLimiter{}, casino.Options{})
	ctx := t.Context()

	_, err := f.client.Model().User().Ensure(ctx, testUser, "Lucky", f.clock.Now())
	require.NoError(t, err)
	_, err = f.client.Model().User().ToggleCongratulate(ctx, testUser)
	require.NoError(t, err)

	for range 6 {
		_, err := f.processor.Process(ctx, roll("🎳", 6))
		require.NoError(t, err)
	}

	f.processor.Wait()
	assert.ElementsMatch(t, []string{
		"🔥 Lucky is on a 4 win streak!",
		"🔥🔥 <b>Lucky</b> has won 5 in a row!",
		"🔥🔥🔥 <b>Lucky is unstoppable: 6 wins in a row!</b>",
	}, f.notifier.texts())

	result, err := f.processor.Process(ctx, roll("🎳", 1))
	require.NoError(t, err)
	assert.Equal(t, types.StreakState{Current: 0, Best: 6}, result.Streak)
}

func TestProcessTriggers(t *testing.T) {
	t.Parallel()

	triggers, err := casino.CompileTriggers([]config.Trigger{
		{UserID: testUser, Game: "slots", Outcome: "jackpot", Template: "{{.Name}} broke the bank with {{.Emoji}}"},
		{UserID: testUser + 1, Template: "never"},
		{MinStreak: 2, Template: "{{.Streak}} in a row"},
	})
	require.NoError(t, err)

	f := setup(t, &countingLimiter{}, casino.Options{Triggers: triggers})
	ctx := t.Context()

	_, err = f.client.Model().User().Ensure(ctx, testUser, "Lucky", f.clock.Now())
	require.NoError(t, err)
	_, err = f.client.Model().User().ToggleCongratulate(ctx, testUser)
	require.NoError(t, err)

	_, err = f.processor.Process(ctx, roll("🎰", 64))
	require.NoError(t, err)
	f.processor.Wait()
	assert.Equal(t, []string{"Lucky broke the bank with 🎰"}, f.notifier.texts())

	_, err = f.processor.Process(ctx, roll("🎰", 22))
	require.NoError(t, err)
	f.processor.Wait()
	assert.Equal(t, []string{"Lucky broke the bank with 🎰", "2 in a row"}, f.notifier.texts())
}

func TestCompileTriggersRejectsBadRules(t *testing.T) {
	t.Parallel()

	_, err := casino.CompileTriggers([]config.Trigger{{Game: "roulette"}})
	require.Error(t, err)

	_, err = casino.CompileTriggers([]config.Trigger{{Template: "{{.Name"}})
	require.Error(t, err)
}
