package commands

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/luckyroll/casino/internal/database"
	"github.com/luckyroll/casino/internal/rating"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	ErrNameRequired    = errors.New("NAME argument required")
	ErrUserIDRequired  = errors.New("USER_ID argument required")
	ErrChatIDRequired  = errors.New("CHAT_ID argument required")
	ErrInvalidID       = errors.New("invalid ID: must be a number")
	ErrInvalidDate     = errors.New("invalid date: expected YYYY-MM-DD")
	ErrAborted         = errors.New("aborted by user")
	ErrTooManyArgument = errors.New("too many arguments")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Rating   *rating.Builder
	Config   *config.Config
	Logger   *zap.Logger
}

// parseID parses a Telegram user or chat ID. Chat IDs of groups are negative.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	return id, nil
}

// confirm asks on stdin and reports whether the answer was yes.
func confirm(format string, args ...any) bool {
	log.Printf(format+" (y/N)", args...)

	var response string

	_, _ = fmt.Scanln(&response)

	return response == "y" || response == "Y"
}
