package enum

// Outcome classifies a single roll.
type Outcome int

const (
	// OutcomeLoss resets the win streak.
	OutcomeLoss Outcome = iota
	// OutcomeWin counts towards wins and the win streak.
	OutcomeWin
	// OutcomeJackpot is a win that is also tracked in the jackpots table.
	OutcomeJackpot
)

var outcomeNames = []string{"loss", "win", "jackpot"}

func (i Outcome) String() string { return name("Outcome", i, outcomeNames) }

// IsWin reports whether the outcome counts as a win. Jackpots are wins.
func (i Outcome) IsWin() bool { return i == OutcomeWin || i == OutcomeJackpot }

// OutcomeString parses an outcome name.
func OutcomeString(s string) (Outcome, error) { return lookup[Outcome]("Outcome", s, outcomeNames) }
