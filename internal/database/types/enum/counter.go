package enum

// CounterTable names one of the lifetime counter tables.
type CounterTable int

const (
	CounterTableTries CounterTable = iota
	CounterTableWins
	CounterTableJackpots
)

var counterTableNames = []string{"tries", "wins", "jackpots"}

func (i CounterTable) String() string { return name("CounterTable", i, counterTableNames) }

// CounterTableString parses a counter table name.
func CounterTableString(s string) (CounterTable, error) {
	return lookup[CounterTable]("CounterTable", s, counterTableNames)
}

// CounterTableValues returns all counter tables.
func CounterTableValues() []CounterTable { return values[CounterTable](counterTableNames) }
