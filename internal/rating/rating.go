// Package rating builds per-chat leaderboards from the rollup tables.
package rating

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
)

// Unranked is rendered in place of a rank for users missing from a leaderboard.
const Unranked = "—"

// Query selects one leaderboard.
type Query struct {
	ChatID    int64
	Game      enum.Game
	Period    enum.Period
	Criterion enum.Criterion
}

// Entry is one leaderboard line. Value is a ratio in [0,1] for winrate and a
// whole number otherwise.
type Entry struct {
	UserID int64   `json:"userId"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
}

type aggregate struct {
	tries, wins, jackpots, bestStreak int64
}

// Compute ranks the rollup rows of one bucket. Rows are grouped by user,
// users scoring 0 are left out, higher values come first and ties go to the
// lower user ID.
func Compute(rows []*types.PeriodStat, game enum.Game, criterion enum.Criterion) []Entry {
	byUser := make(map[int64]*aggregate)

	for _, row := range rows {
		if row.Game != game {
			continue
		}

		agg, ok := byUser[row.UserID]
		if !ok {
			agg = &aggregate{}
			byUser[row.UserID] = agg
		}

		agg.tries += row.Tries
		agg.wins += row.Wins
		agg.jackpots += row.Jackpots
		agg.bestStreak = max(agg.bestStreak, row.BestStreak)
	}

	entries := make([]Entry, 0, len(byUser))

	for userID, agg := range byUser {
		value := criterionValue(agg, game, criterion)
		if value == 0 {
			continue
		}

		entries = append(entries, Entry{UserID: userID, Value: value})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}

		return cmp.Compare(a.UserID, b.UserID)
	})

	return entries
}

func criterionValue(agg *aggregate, game enum.Game, criterion enum.Criterion) float64 {
	switch criterion {
	case enum.CriterionWins:
		return float64(agg.wins)
	case enum.CriterionTries:
		return float64(agg.tries)
	case enum.CriterionJackpots:
		if game != enum.GameSlots {
			return 0
		}

		return float64(agg.jackpots)
	case enum.CriterionWinrate:
		if agg.tries == 0 {
			return 0
		}

		return float64(agg.wins) / float64(agg.tries)
	case enum.CriterionStreaks:
		return float64(agg.bestStreak)
	}

	return 0
}

// FindRank returns the 1-based rank of a user, or false when the user is not listed.
func FindRank(userID int64, entries []Entry) (int, bool) {
	for i, entry := range entries {
		if entry.UserID == userID {
			return i + 1, true
		}
	}

	return 0, false
}

// RankLabel renders the result of FindRank.
func RankLabel(rank int, ok bool) string {
	if !ok {
		return Unranked
	}

	return fmt.Sprintf("%d", rank)
}
