package enum

// Period selects the rollup table used for leaderboards.
type Period int

const (
	// PeriodDay aggregates the current calendar day bucket.
	PeriodDay Period = iota
	// PeriodWeek aggregates the current ISO week bucket (not a rolling window).
	PeriodWeek
)

var periodNames = []string{"day", "week"}

func (i Period) String() string { return name("Period", i, periodNames) }

// PeriodString parses a period name.
func PeriodString(s string) (Period, error) { return lookup[Period]("Period", s, periodNames) }

// PeriodValues returns all periods.
func PeriodValues() []Period { return values[Period](periodNames) }

// Criterion is the value a leaderboard ranks users by.
type Criterion int

const (
	CriterionWins Criterion = iota
	CriterionTries
	CriterionJackpots
	CriterionWinrate
	CriterionStreaks
)

var criterionNames = []string{"wins", "tries", "jackpots", "winrate", "streaks"}

func (i Criterion) String() string { return name("Criterion", i, criterionNames) }

// CriterionString parses a criterion name.
func CriterionString(s string) (Criterion, error) {
	return lookup[Criterion]("Criterion", s, criterionNames)
}

// CriterionValues returns all criteria.
func CriterionValues() []Criterion { return values[Criterion](criterionNames) }
