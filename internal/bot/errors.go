package bot

import "errors"

var (
	// ErrPollingStopped is returned when Telegram stops delivering updates.
	ErrPollingStopped = errors.New("polling stopped")
	// ErrUsage is returned by argument parsers for malformed commands.
	ErrUsage = errors.New("usage")
)
