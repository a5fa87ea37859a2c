package types_test

import (
	"testing"
	"time"

	"github.com/luckyroll/casino/internal/database/types"
	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
)

func TestStreakStateApply(t *testing.T) {
	t.Parallel()

	rolls := []bool{true, true, true, false, true, false, false, true, true, true, true}
	state := types.StreakState{}

	for i, win := range rolls {
		prev := state
		state = state.Apply(win)

		assert.GreaterOrEqual(t, state.Best, state.Current, "roll %d", i)
		assert.GreaterOrEqual(t, state.Best, prev.Best, "roll %d", i)

		if !win {
			assert.Equal(t, int64(0), state.Current, "roll %d", i)
		} else {
			assert.Equal(t, prev.Current+1, state.Current, "roll %d", i)
		}
	}

	assert.Equal(t, types.StreakState{Current: 4, Best: 4}, state)
}

func TestBuckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		at   time.Time
		day  string
		week string
	}{
		{
			name: "thursday",
			at:   time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
			day:  "2026-10-15",
			week: "2026-10-12",
		},
		{
			name: "sunday belongs to the week started on monday",
			at:   time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC),
			day:  "2026-10-18",
			week: "2026-10-12",
		},
		{
			name: "monday starts a new week",
			at:   time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
			day:  "2026-10-19",
			week: "2026-10-19",
		},
		{
			name: "week crossing the year",
			at:   time.Date(2027, 1, 1, 8, 0, 0, 0, time.UTC),
			day:  "2027-01-01",
			week: "2026-12-28",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.day, types.Bucket(enum.PeriodDay, tt.at, time.UTC))
			assert.Equal(t, tt.week, types.Bucket(enum.PeriodWeek, tt.at, time.UTC))
		})
	}
}

func TestBucketUsesLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	at := time.Date(2026, 10, 15, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-10-16", types.DayBucket(at, loc))
}

func TestCountersZeroFilled(t *testing.T) {
	t.Parallel()

	row := &types.JackpotsRow{UserID: 1, ChatID: 2, Slots: 3}
	c := row.ToCounters()

	assert.Equal(t, int64(3), c.Get(enum.GameSlots))
	assert.Equal(t, int64(0), c.Get(enum.GameBowl))
	assert.Len(t, c.Values, len(enum.GameValues()))
	assert.Equal(t, int64(3), c.Total())
}
