package game

import "github.com/luckyroll/casino/internal/database/types/enum"

// SlotsJackpot is the slot machine value showing three sevens.
const SlotsJackpot = 64

// Registry indexes definitions by dice emoji and by game name.
type Registry struct {
	byKey  map[string]*Definition
	byName map[enum.Game]*Definition
	order  []*Definition
}

// NewRegistry builds a registry from the given definitions.
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{
		byKey:  make(map[string]*Definition, len(defs)),
		byName: make(map[enum.Game]*Definition, len(defs)),
		order:  make([]*Definition, 0, len(defs)),
	}

	for _, def := range defs {
		r.byKey[def.Key] = def
		r.byName[def.Name] = def
		r.order = append(r.order, def)
	}

	return r
}

// DefaultRegistry returns the six Telegram dice games.
func DefaultRegistry() *Registry {
	jackpot := SlotsJackpot

	return NewRegistry(
		&Definition{Key: "🎰", Name: enum.GameSlots, Title: "Slots", MaxValue: 64, WinningValues: []int{1, 22, 43}, Jackpot: &jackpot},
		&Definition{Key: "🎲", Name: enum.GameDice, Title: "Dice", MaxValue: 6, WinningValues: []int{6}},
		&Definition{Key: "🎯", Name: enum.GameDart, Title: "Darts", MaxValue: 6, WinningValues: []int{6}},
		&Definition{Key: "🏀", Name: enum.GameBask, Title: "Basketball", MaxValue: 5, WinningValues: []int{4, 5}},
		&Definition{Key: "⚽", Name: enum.GameFoot, Title: "Football", MaxValue: 5, WinningValues: []int{3, 4, 5}},
		&Definition{Key: "🎳", Name: enum.GameBowl, Title: "Bowling", MaxValue: 6, WinningValues: []int{6}},
	)
}

// ByEmoji looks a game up by its dice emoji.
func (r *Registry) ByEmoji(key string) (*Definition, bool) {
	def, ok := r.byKey[key]
	return def, ok
}

// ByName looks a game up by its name.
func (r *Registry) ByName(name enum.Game) (*Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// All returns the definitions in registration order.
func (r *Registry) All() []*Definition {
	return r.order
}

// Resolve validates a raw roll and returns its game definition.
func (r *Registry) Resolve(key string, value int) (*Definition, error) {
	def, ok := r.byKey[key]
	if !ok {
		return nil, &ValidationError{GameKey: key, Value: value, Err: ErrUnknownGame}
	}

	if err := r.Validate(def, value); err != nil {
		return nil, err
	}

	return def, nil
}

// Validate checks that value is a face the game's dice can show.
func (r *Registry) Validate(def *Definition, value int) error {
	if value < 1 || value > def.MaxValue {
		return &ValidationError{GameKey: def.Key, Value: value, Err: ErrInvalidValue}
	}

	return nil
}
