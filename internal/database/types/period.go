package types

import (
	"time"

	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// BucketLayout is the text form of a period bucket.
const BucketLayout = "2006-01-02"

// DailyStat accumulates one user's activity for one game on one calendar day.
type DailyStat struct {
	bun.BaseModel `bun:"table:daily_stats,alias:ds"`

	UserID      int64     `bun:",pk"`
	ChatID      int64     `bun:",pk"`
	Game        enum.Game `bun:",pk"`
	Bucket      string    `bun:",pk"`
	Tries       int64     `bun:",notnull,default:0"`
	Wins        int64     `bun:",notnull,default:0"`
	Jackpots    int64     `bun:",notnull,default:0"`
	BestStreak  int64     `bun:",notnull,default:0"`
	LastUpdated time.Time `bun:",notnull"`
}

// WeeklyStat accumulates one user's activity for one game in one ISO week.
// Bucket holds the date of the week's Monday.
type WeeklyStat struct {
	bun.BaseModel `bun:"table:weekly_stats,alias:ws"`

	UserID      int64     `bun:",pk"`
	ChatID      int64     `bun:",pk"`
	Game        enum.Game `bun:",pk"`
	Bucket      string    `bun:",pk"`
	Tries       int64     `bun:",notnull,default:0"`
	Wins        int64     `bun:",notnull,default:0"`
	Jackpots    int64     `bun:",notnull,default:0"`
	BestStreak  int64     `bun:",notnull,default:0"`
	LastUpdated time.Time `bun:",notnull"`
}

// PeriodStat is the table-independent form of a rollup row.
type PeriodStat struct {
	UserID     int64
	ChatID     int64
	Game       enum.Game
	Bucket     string
	Tries      int64
	Wins       int64
	Jackpots   int64
	BestStreak int64
}

// PeriodDelta is what a single scored roll adds to a bucket. Tries, Wins and
// Jackpots are summed; Streak only raises BestStreak when it is larger.
type PeriodDelta struct {
	Tries    int64
	Wins     int64
	Jackpots int64
	Streak   int64
}

// ToPeriodStat converts a daily row.
func (s *DailyStat) ToPeriodStat() *PeriodStat {
	return &PeriodStat{
		UserID: s.UserID, ChatID: s.ChatID, Game: s.Game, Bucket: s.Bucket,
		Tries: s.Tries, Wins: s.Wins, Jackpots: s.Jackpots, BestStreak: s.BestStreak,
	}
}

// ToPeriodStat converts a weekly row.
func (s *WeeklyStat) ToPeriodStat() *PeriodStat {
	return &PeriodStat{
		UserID: s.UserID, ChatID: s.ChatID, Game: s.Game, Bucket: s.Bucket,
		Tries: s.Tries, Wins: s.Wins, Jackpots: s.Jackpots, BestStreak: s.BestStreak,
	}
}

// DayBucket returns the calendar day of t in loc.
func DayBucket(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(BucketLayout)
}

// WeekBucket returns the Monday that starts the ISO week of t in loc.
func WeekBucket(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7 // Monday = 0
	monday := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)

	return monday.Format(BucketLayout)
}

// Bucket returns the bucket of t for the given period.
func Bucket(period enum.Period, t time.Time, loc *time.Location) string {
	if period == enum.PeriodWeek {
		return WeekBucket(t, loc)
	}

	return DayBucket(t, loc)
}

// RollRecord is one scored roll as handed to the stats store.
type RollRecord struct {
	UserID  int64
	ChatID  int64
	Game    enum.Game
	Outcome enum.Outcome
	At      time.Time
}
