package service

import (
	"context"
	"errors"
	"time"

	"github.com/luckyroll/casino/internal/database/dbretry"
	"github.com/luckyroll/casino/internal/database/models"
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// StatsService handles counters, streaks and rollups of scored rolls.
type StatsService struct {
	db      *bun.DB
	counter *models.CounterModel
	period  *models.PeriodModel
	streak  *models.StreakModel
	loc     *time.Location
	logger  *zap.Logger
}

// NewStats creates a new stats service.
func NewStats(
	db *bun.DB,
	counter *models.CounterModel,
	period *models.PeriodModel,
	streak *models.StreakModel,
	settings Settings,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		db:      db,
		counter: counter,
		period:  period,
		streak:  streak,
		loc:     settings.location(),
		logger:  logger.Named("stats_service"),
	}
}

// Location returns the time zone used for buckets.
func (s *StatsService) Location() *time.Location {
	return s.loc
}

// Bucket returns the bucket that t falls into.
func (s *StatsService) Bucket(period enum.Period, t time.Time) string {
	return types.Bucket(period, t, s.loc)
}

// RecordTry counts one roll. Calling it twice counts two rolls.
func (s *StatsService) RecordTry(ctx context.Context, userID, chatID int64, game enum.Game) error {
	err := s.counter.Increment(ctx, enum.CounterTableTries, userID, chatID, game, time.Now().UTC())
	return types.WrapStore("record try", err)
}

// RecordOutcome counts a win, and a jackpot on top of it. Losses write nothing.
func (s *StatsService) RecordOutcome(
	ctx context.Context, userID, chatID int64, game enum.Game, outcome enum.Outcome,
) error {
	if !outcome.IsWin() {
		return nil
	}

	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		return s.recordOutcomeWithTx(ctx, tx, userID, chatID, game, outcome, time.Now().UTC())
	})

	return types.WrapStore("record outcome", err)
}

// UpdateStreak applies one roll to the win streak and returns the stored state.
func (s *StatsService) UpdateStreak(
	ctx context.Context, userID, chatID int64, game enum.Game, isWin bool,
) (types.StreakState, error) {
	state, err := dbretry.Operation(ctx, func(ctx context.Context) (types.StreakState, error) {
		return s.streak.UpdateWithTx(ctx, s.db, userID, chatID, game, isWin, time.Now().UTC())
	})
	if err != nil {
		return types.StreakState{}, types.WrapStore("update streak", err)
	}

	return state, nil
}

// RecordPeriodStats adds delta to the day and week buckets of now. The two
// upserts are separate statements; a failure between them leaves the day
// bucket ahead of the week bucket. A missing rollup table is skipped.
func (s *StatsService) RecordPeriodStats(
	ctx context.Context, userID, chatID int64, game enum.Game, delta types.PeriodDelta, now time.Time,
) error {
	for _, period := range enum.PeriodValues() {
		key := models.PeriodKey{UserID: userID, ChatID: chatID, Game: game, Bucket: s.Bucket(period, now)}

		err := s.period.Upsert(ctx, period, key, delta, now.UTC())
		if dbretry.IsMissingTable(err) {
			s.logger.Warn("Rollup table missing, skipping",
				zap.String("period", period.String()),
				zap.Error(err))

			continue
		}

		if err != nil {
			return types.WrapStore("record period stats", err)
		}
	}

	return nil
}

// RecordRoll stores every effect of a scored roll in one transaction: the
// try, the outcome, the streak and both rollups. Nothing is kept on failure,
// except that a missing rollup table is skipped.
func (s *StatsService) RecordRoll(ctx context.Context, rec types.RollRecord) (types.StreakState, error) {
	var state types.StreakState

	at := rec.At.UTC()
	if rec.At.IsZero() {
		at = time.Now().UTC()
	}

	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		err := s.counter.IncrementWithTx(ctx, tx, enum.CounterTableTries, rec.UserID, rec.ChatID, rec.Game, at)
		if err != nil {
			return err
		}

		if err := s.recordOutcomeWithTx(ctx, tx, rec.UserID, rec.ChatID, rec.Game, rec.Outcome, at); err != nil {
			return err
		}

		state, err = s.streak.UpdateWithTx(ctx, tx, rec.UserID, rec.ChatID, rec.Game, rec.Outcome.IsWin(), at)
		if err != nil {
			return err
		}

		delta := types.PeriodDelta{Tries: 1, Streak: state.Current}
		if rec.Outcome.IsWin() {
			delta.Wins = 1
		}

		if rec.Outcome == enum.OutcomeJackpot {
			delta.Jackpots = 1
		}

		for _, period := range enum.PeriodValues() {
			key := models.PeriodKey{
				UserID: rec.UserID, ChatID: rec.ChatID, Game: rec.Game, Bucket: s.Bucket(period, at),
			}
			if err := s.upsertRollupWithTx(ctx, tx, period, key, delta, at); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return types.StreakState{}, types.WrapStore("record roll", err)
	}

	s.logger.Debug("Roll recorded",
		zap.Int64("userID", rec.UserID),
		zap.Int64("chatID", rec.ChatID),
		zap.String("game", rec.Game.String()),
		zap.String("outcome", rec.Outcome.String()),
		zap.Int64("streak", state.Current))

	return state, nil
}

// upsertRollupWithTx writes one rollup bucket under a savepoint. A missing
// rollup table rolls back to the savepoint and leaves the roll intact.
func (s *StatsService) upsertRollupWithTx(
	ctx context.Context, tx bun.Tx, period enum.Period, key models.PeriodKey, delta types.PeriodDelta, at time.Time,
) error {
	sp, err := tx.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.period.UpsertWithTx(ctx, sp, period, key, delta, at)
	if err == nil {
		return sp.Commit()
	}

	if rbErr := sp.Rollback(); rbErr != nil {
		return errors.Join(err, rbErr)
	}

	if !dbretry.IsMissingTable(err) {
		return err
	}

	s.logger.Warn("Rollup table missing, roll scored without it",
		zap.String("period", period.String()),
		zap.Error(err))

	return nil
}

func (s *StatsService) recordOutcomeWithTx(
	ctx context.Context, tx bun.IDB, userID, chatID int64, game enum.Game, outcome enum.Outcome, now time.Time,
) error {
	if !outcome.IsWin() {
		return nil
	}

	if err := s.counter.IncrementWithTx(ctx, tx, enum.CounterTableWins, userID, chatID, game, now); err != nil {
		return err
	}

	if outcome == enum.OutcomeJackpot {
		return s.counter.IncrementWithTx(ctx, tx, enum.CounterTableJackpots, userID, chatID, game, now)
	}

	return nil
}

// ResetUser deletes the counters, rollups and streaks of a user in one chat.
func (s *StatsService) ResetUser(ctx context.Context, userID, chatID int64) (int64, error) {
	return s.reset(ctx, "reset user", models.Scope{UserID: &userID, ChatID: &chatID})
}

// ResetChat deletes the counters, rollups and streaks of every user in a chat.
func (s *StatsService) ResetChat(ctx context.Context, chatID int64) (int64, error) {
	return s.reset(ctx, "reset chat", models.Scope{ChatID: &chatID})
}

// ResetAll deletes every counter, rollup and streak. Users are kept.
func (s *StatsService) ResetAll(ctx context.Context) (int64, error) {
	return s.reset(ctx, "reset all", models.Scope{})
}

// reset runs one delete per table. Each delete is idempotent, so a reset that
// fails halfway is completed by running it again.
func (s *StatsService) reset(ctx context.Context, op string, scope models.Scope) (int64, error) {
	steps := []func(context.Context) (int64, error){
		func(ctx context.Context) (int64, error) {
			return s.counter.DeleteScope(ctx, enum.CounterTableTries, scope)
		},
		func(ctx context.Context) (int64, error) {
			return s.counter.DeleteScope(ctx, enum.CounterTableWins, scope)
		},
		func(ctx context.Context) (int64, error) {
			return s.counter.DeleteScope(ctx, enum.CounterTableJackpots, scope)
		},
		func(ctx context.Context) (int64, error) { return s.period.DeleteScope(ctx, enum.PeriodDay, scope) },
		func(ctx context.Context) (int64, error) { return s.period.DeleteScope(ctx, enum.PeriodWeek, scope) },
		func(ctx context.Context) (int64, error) { return s.streak.DeleteScope(ctx, scope) },
	}

	var total int64

	for _, step := range steps {
		n, err := step(ctx)
		if err != nil {
			return total, types.WrapStore(op, err)
		}

		total += n
	}

	s.logger.Info("Stats reset", zap.String("op", op), zap.Int64("rows", total))

	return total, nil
}

// GetCounters returns the zero-filled counters of a user in a chat.
func (s *StatsService) GetCounters(
	ctx context.Context, table enum.CounterTable, userID, chatID int64,
) (*types.Counters, error) {
	counters, err := s.counter.Get(ctx, table, userID, chatID)
	if err != nil {
		return nil, types.WrapStore("get counters", err)
	}

	return counters, nil
}

// GetAllCounters returns every counter row of a table, for one chat when chatID is set.
func (s *StatsService) GetAllCounters(
	ctx context.Context, table enum.CounterTable, chatID *int64,
) ([]*types.Counters, error) {
	counters, err := s.counter.GetAll(ctx, table, chatID)
	if err != nil {
		return nil, types.WrapStore("get all counters", err)
	}

	return counters, nil
}

// GetPeriodStats returns the rollup rows of a chat. A nil bucket selects the current one.
func (s *StatsService) GetPeriodStats(
	ctx context.Context, chatID int64, period enum.Period, game *enum.Game, bucket *string,
) ([]*types.PeriodStat, error) {
	b := s.Bucket(period, time.Now())
	if bucket != nil {
		b = *bucket
	}

	stats, err := s.period.List(ctx, period, chatID, game, b)
	if err != nil {
		return nil, types.WrapStore("get period stats", err)
	}

	return stats, nil
}

// GetStreaks returns the win streaks of a chat, best first.
func (s *StatsService) GetStreaks(ctx context.Context, chatID int64, game *enum.Game) ([]*types.WinStreak, error) {
	streaks, err := s.streak.List(ctx, chatID, game)
	if err != nil {
		return nil, types.WrapStore("get streaks", err)
	}

	return streaks, nil
}

// PruneDaily deletes day buckets older than before.
func (s *StatsService) PruneDaily(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.period.PruneBefore(ctx, enum.PeriodDay, s.Bucket(enum.PeriodDay, before))
	return n, types.WrapStore("prune daily", err)
}

// PruneWeekly deletes week buckets that started before the week of before.
func (s *StatsService) PruneWeekly(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.period.PruneBefore(ctx, enum.PeriodWeek, s.Bucket(enum.PeriodWeek, before))
	return n, types.WrapStore("prune weekly", err)
}
