// Package game holds the static game definitions and the outcome evaluator.
package game

import (
	"errors"
	"fmt"
	"slices"

	"github.com/luckyroll/casino/internal/database/types/enum"
)

var (
	ErrUnknownGame  = errors.New("unknown game")
	ErrInvalidValue = errors.New("rolled value out of range")
)

// Definition describes one dice game. Definitions are immutable once built.
type Definition struct {
	Key           string    // Dice emoji sent by Telegram
	Name          enum.Game // Column name in the counter tables
	Title         string    // Human readable title
	MaxValue      int       // Largest value the dice can produce
	WinningValues []int
	Jackpot       *int
}

// HasJackpot reports whether the game tracks jackpots.
func (d *Definition) HasJackpot() bool {
	return d.Jackpot != nil
}

// ValidationError rejects a roll before it reaches the stats store.
type ValidationError struct {
	GameKey string
	Value   int
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid roll %q=%d: %v", e.GameKey, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Evaluate classifies a rolled value. The jackpot check wins over the
// regular winning values.
func Evaluate(def *Definition, value int) enum.Outcome {
	if def.Jackpot != nil && value == *def.Jackpot {
		return enum.OutcomeJackpot
	}

	if slices.Contains(def.WinningValues, value) {
		return enum.OutcomeWin
	}

	return enum.OutcomeLoss
}
