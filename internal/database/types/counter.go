package types

import (
	"time"

	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// TriesRow is the lifetime number of rolls per game of a user in a chat.
type TriesRow struct {
	bun.BaseModel `bun:"table:tries,alias:tr"`

	UserID      int64     `bun:",pk"`
	ChatID      int64     `bun:",pk"`
	Slots       int64     `bun:",notnull,default:0"`
	Dice        int64     `bun:",notnull,default:0"`
	Dart        int64     `bun:",notnull,default:0"`
	Bask        int64     `bun:",notnull,default:0"`
	Foot        int64     `bun:",notnull,default:0"`
	Bowl        int64     `bun:",notnull,default:0"`
	LastUpdated time.Time `bun:",notnull"`
}

// WinsRow is the lifetime number of wins per game of a user in a chat.
type WinsRow struct {
	bun.BaseModel `bun:"table:wins,alias:wn"`

	UserID      int64     `bun:",pk"`
	ChatID      int64     `bun:",pk"`
	Slots       int64     `bun:",notnull,default:0"`
	Dice        int64     `bun:",notnull,default:0"`
	Dart        int64     `bun:",notnull,default:0"`
	Bask        int64     `bun:",notnull,default:0"`
	Foot        int64     `bun:",notnull,default:0"`
	Bowl        int64     `bun:",notnull,default:0"`
	LastUpdated time.Time `bun:",notnull"`
}

// JackpotsRow only tracks the slots family; every jackpot lands in Slots.
type JackpotsRow struct {
	bun.BaseModel `bun:"table:jackpots,alias:jp"`

	UserID      int64     `bun:",pk"`
	ChatID      int64     `bun:",pk"`
	Slots       int64     `bun:",notnull,default:0"`
	LastUpdated time.Time `bun:",notnull"`
}

// Counters is the zero-filled view of one counter row, independent of its table.
type Counters struct {
	UserID      int64
	ChatID      int64
	Values      map[enum.Game]int64
	LastUpdated time.Time
}

// NewCounters returns an all-zero counter set for the given key.
func NewCounters(userID, chatID int64) *Counters {
	values := make(map[enum.Game]int64, len(enum.GameValues()))
	for _, g := range enum.GameValues() {
		values[g] = 0
	}

	return &Counters{UserID: userID, ChatID: chatID, Values: values}
}

// Get returns the counter of a game, 0 when absent.
func (c *Counters) Get(game enum.Game) int64 {
	return c.Values[game]
}

// Total sums every game column.
func (c *Counters) Total() int64 {
	var total int64
	for _, v := range c.Values {
		total += v
	}

	return total
}

// ToCounters converts a tries row.
func (r *TriesRow) ToCounters() *Counters {
	c := NewCounters(r.UserID, r.ChatID)
	c.Values[enum.GameSlots] = r.Slots
	c.Values[enum.GameDice] = r.Dice
	c.Values[enum.GameDart] = r.Dart
	c.Values[enum.GameBask] = r.Bask
	c.Values[enum.GameFoot] = r.Foot
	c.Values[enum.GameBowl] = r.Bowl
	c.LastUpdated = r.LastUpdated

	return c
}

// ToCounters converts a wins row.
func (r *WinsRow) ToCounters() *Counters {
	c := NewCounters(r.UserID, r.ChatID)
	c.Values[enum.GameSlots] = r.Slots
	c.Values[enum.GameDice] = r.Dice
	c.Values[enum.GameDart] = r.Dart
	c.Values[enum.GameBask] = r.Bask
	c.Values[enum.GameFoot] = r.Foot
	c.Values[enum.GameBowl] = r.Bowl
	c.LastUpdated = r.LastUpdated

	return c
}

// ToCounters converts a jackpots row. Non-slots games stay at zero.
func (r *JackpotsRow) ToCounters() *Counters {
	c := NewCounters(r.UserID, r.ChatID)
	c.Values[enum.GameSlots] = r.Slots
	c.LastUpdated = r.LastUpdated

	return c
}

// SetGame stores delta in the column of game. Used to build upsert rows.
func (r *TriesRow) SetGame(game enum.Game, delta int64) {
	switch game {
	case enum.GameSlots:
		r.Slots = delta
	case enum.GameDice:
		r.Dice = delta
	case enum.GameDart:
		r.Dart = delta
	case enum.GameBask:
		r.Bask = delta
	case enum.GameFoot:
		r.Foot = delta
	case enum.GameBowl:
		r.Bowl = delta
	}
}

// SetGame stores delta in the column of game. Used to build upsert rows.
func (r *WinsRow) SetGame(game enum.Game, delta int64) {
	switch game {
	case enum.GameSlots:
		r.Slots = delta
	case enum.GameDice:
		r.Dice = delta
	case enum.GameDart:
		r.Dart = delta
	case enum.GameBask:
		r.Bask = delta
	case enum.GameFoot:
		r.Foot = delta
	case enum.GameBowl:
		r.Bowl = delta
	}
}
