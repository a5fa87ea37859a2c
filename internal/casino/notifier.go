package casino

import (
	"context"
	"fmt"
	"html"

	"github.com/luckyroll/casino/internal/database/types"
)

// Message is an outbound chat message. Text is HTML.
type Message struct {
	ChatID   int64
	ThreadID int
	ReplyTo  int
	Text     string
}

// Notifier delivers the side effects of scored and rejected rolls.
type Notifier interface {
	// Send posts a message and returns its ID.
	Send(ctx context.Context, msg Message) (int, error)
	// Delete removes a previously sent message.
	Delete(ctx context.Context, chatID int64, messageID int) error
}

const (
	textWin         = "🤑 <b>Win!</b> Congratulations."
	textJackpot     = "🎰 <b>JACKPOT!</b> Congratulations, %s."
	textRateLimited = "⏳ Not so fast, %s."
)

// streakText renders a milestone message. Level starts at 1 for the first
// milestone and grows with each further milestone reached.
func streakText(name string, streak int64, level int) string {
	name = html.EscapeString(name)

	switch level {
	case 1:
		return fmt.Sprintf("🔥 %s is on a %d win streak!", name, streak)
	case 2:
		return fmt.Sprintf("🔥🔥 <b>%s</b> has won %d in a row!", name, streak)
	default:
		return fmt.Sprintf("🔥🔥🔥 <b>%s is unstoppable: %d wins in a row!</b>", name, streak)
	}
}

// milestoneLevel returns how many milestones the streak has reached.
// Milestones must be ascending.
func milestoneLevel(state types.StreakState, milestones []int) int {
	level := 0

	for _, m := range milestones {
		if state.Current >= int64(m) {
			level++
		}
	}

	return level
}
