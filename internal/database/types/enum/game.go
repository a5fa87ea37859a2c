package enum

// Game identifies one of the dice games. The names double as the counter
// column names of the tries and wins tables.
type Game int

const (
	GameSlots Game = iota
	GameDice
	GameDart
	GameBask
	GameFoot
	GameBowl
)

var gameNames = []string{"slots", "dice", "dart", "bask", "foot", "bowl"}

func (i Game) String() string { return name("Game", i, gameNames) }

// IsAGame reports whether i is one of the declared games.
func (i Game) IsAGame() bool { return i >= 0 && int(i) < len(gameNames) }

// GameString parses a game from its column name.
func GameString(s string) (Game, error) { return lookup[Game]("Game", s, gameNames) }

// GameValues returns all games in column order.
func GameValues() []Game { return values[Game](gameNames) }
