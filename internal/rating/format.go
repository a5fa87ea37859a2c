package rating

import (
	"strings"

	"github.com/luckyroll/casino/internal/database/types/enum"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatValue renders an entry value for the given criterion.
func FormatValue(value float64, criterion enum.Criterion) string {
	if criterion == enum.CriterionWinrate {
		return printer.Sprintf("%.1f%%", value*100)
	}

	return printer.Sprintf("%d", int64(value))
}

// Format renders at most top entries, one per line.
func Format(q Query, entries []Entry, top int) string {
	var sb strings.Builder

	sb.WriteString(printer.Sprintf("Top %s by %s (%s)\n", q.Game, q.Criterion, q.Period))

	if len(entries) == 0 {
		sb.WriteString("Nobody yet.")
		return sb.String()
	}

	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}

	for i, entry := range entries {
		sb.WriteString(printer.Sprintf("%d. %s: %s\n", i+1, entry.Name, FormatValue(entry.Value, q.Criterion)))
	}

	return strings.TrimRight(sb.String(), "\n")
}
