package game_test

import (
	"testing"

	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSlots(t *testing.T) {
	t.Parallel()

	slots, ok := game.DefaultRegistry().ByName(enum.GameSlots)
	require.True(t, ok)

	tests := []struct {
		value int
		want  enum.Outcome
	}{
		{64, enum.OutcomeJackpot},
		{22, enum.OutcomeWin},
		{1, enum.OutcomeWin},
		{43, enum.OutcomeWin},
		{2, enum.OutcomeLoss},
		{63, enum.OutcomeLoss},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, game.Evaluate(slots, tt.value), "value %d", tt.value)
	}
}

func TestEvaluateWithoutJackpot(t *testing.T) {
	t.Parallel()

	foot, ok := game.DefaultRegistry().ByEmoji("⚽")
	require.True(t, ok)
	assert.False(t, foot.HasJackpot())

	assert.Equal(t, enum.OutcomeWin, game.Evaluate(foot, 3))
	assert.Equal(t, enum.OutcomeLoss, game.Evaluate(foot, 2))
}

func TestJackpotTakesPriority(t *testing.T) {
	t.Parallel()

	jackpot := 6
	def := &game.Definition{Key: "x", Name: enum.GameDice, MaxValue: 6, WinningValues: []int{5, 6}, Jackpot: &jackpot}

	assert.Equal(t, enum.OutcomeJackpot, game.Evaluate(def, 6))
	assert.Equal(t, enum.OutcomeWin, game.Evaluate(def, 5))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	registry := game.DefaultRegistry()

	def, err := registry.Resolve("🎳", 6)
	require.NoError(t, err)
	assert.Equal(t, enum.GameBowl, def.Name)

	_, err = registry.Resolve("🃏", 1)
	require.ErrorIs(t, err, game.ErrUnknownGame)

	var verr *game.ValidationError
	_, err = registry.Resolve("🎲", 7)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 7, verr.Value)
	require.ErrorIs(t, err, game.ErrInvalidValue)

	_, err = registry.Resolve("🎲", 0)
	require.ErrorIs(t, err, game.ErrInvalidValue)
}

func TestRegistryOrder(t *testing.T) {
	t.Parallel()

	var names []enum.Game
	for _, def := range game.DefaultRegistry().All() {
		names = append(names, def.Name)
	}

	assert.Equal(t, enum.GameValues(), names)
}
