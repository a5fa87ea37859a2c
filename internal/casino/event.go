// Package casino runs the roll pipeline: validation, moderation, rate
// limiting, scoring and the notifications that follow a scored roll.
package casino

import (
	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
)

// RollEvent is a dice roll as seen by the transport.
type RollEvent struct {
	UserID    int64
	UserName  string
	ChatID    int64
	ThreadID  int
	MessageID int
	GameKey   string
	Value     int
	Forwarded bool
}

// Status tells what the pipeline did with a roll.
type Status int

const (
	// StatusScored means the roll was counted.
	StatusScored Status = iota
	// StatusForwarded means the roll was a forwarded message and was ignored.
	StatusForwarded
	// StatusInvalid means the game or value was not recognised.
	StatusInvalid
	// StatusBlocked means the user is blocked in the chat.
	StatusBlocked
	// StatusRateLimited means the roll came inside the cooldown window.
	StatusRateLimited
	// StatusFailed means storage failed and nothing was counted.
	StatusFailed
)

var statusNames = []string{"scored", "forwarded", "invalid", "blocked", "rate_limited", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}

	return statusNames[s]
}

// Result is returned for every processed roll.
type Result struct {
	Status  Status
	Game    enum.Game
	Outcome enum.Outcome
	Streak  types.StreakState
}
