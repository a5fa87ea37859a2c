package types

// Record is one user's lifetime counters for one game in one chat.
type Record struct {
	UserID   int64
	ChatID   int64
	Name     string
	Game     string
	Tries    int64
	Wins     int64
	Jackpots int64
}
