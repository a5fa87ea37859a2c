package types

import (
	"time"

	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// WinStreak tracks consecutive wins of a user in one chat and game.
// BestStreak is never lower than CurrentStreak.
type WinStreak struct {
	bun.BaseModel `bun:"table:win_streaks,alias:wsk"`

	UserID        int64     `bun:",pk"`
	ChatID        int64     `bun:",pk"`
	Game          enum.Game `bun:",pk"`
	CurrentStreak int64     `bun:",notnull,default:0"`
	BestStreak    int64     `bun:",notnull,default:0"`
	LastWinAt     time.Time `bun:",nullzero"`
}

// StreakState is the post-update pair returned by streak updates.
type StreakState struct {
	Current int64
	Best    int64
}

// Apply returns the state after one roll. A loss resets the current streak,
// a win extends it and lifts the best streak when needed.
func (s StreakState) Apply(isWin bool) StreakState {
	if !isWin {
		return StreakState{Current: 0, Best: s.Best}
	}

	next := StreakState{Current: s.Current + 1, Best: s.Best}
	if next.Current > next.Best {
		next.Best = next.Current
	}

	return next
}
