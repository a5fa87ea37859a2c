package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luckyroll/casino/internal/database/types/enum"
	"github.com/luckyroll/casino/internal/export"
	"github.com/luckyroll/casino/internal/rating"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// StatsCommands returns the commands that read or wipe game statistics.
func StatsCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "reset",
			Usage: "Wipe counters, streaks and period stats",
			Description: `Reset statistics for one scope:
  db reset user USER_ID CHAT_ID
  db reset chat CHAT_ID
  db reset all

User names and notification settings are kept.`,
			Commands: []*cli.Command{
				{
					Name:      "user",
					Usage:     "Reset one user in one chat",
					ArgsUsage: "USER_ID CHAT_ID",
					Flags:     []cli.Flag{yesFlag()},
					Action:    handleResetUser(deps),
				},
				{
					Name:      "chat",
					Usage:     "Reset every user of a chat",
					ArgsUsage: "CHAT_ID",
					Flags:     []cli.Flag{yesFlag()},
					Action:    handleResetChat(deps),
				},
				{
					Name:   "all",
					Usage:  "Reset every chat",
					Flags:  []cli.Flag{yesFlag()},
					Action: handleResetAll(deps),
				},
			},
		},
		{
			Name:  "prune",
			Usage: "Delete day and week buckets older than a date",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "before",
					Usage:    "Cutoff date (YYYY-MM-DD) in the configured time zone",
					Required: true,
				},
			},
			Action: handlePrune(deps),
		},
		{
			Name:  "rating",
			Usage: "Print a leaderboard",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "chat", Usage: "Chat ID", Required: true},
				&cli.StringFlag{Name: "game", Usage: "Game name", Value: enum.GameSlots.String()},
				&cli.StringFlag{Name: "period", Usage: "day or week", Value: enum.PeriodDay.String()},
				&cli.StringFlag{Name: "criterion", Usage: "Ranking criterion", Value: enum.CriterionWins.String()},
				&cli.IntFlag{Name: "top", Usage: "Number of entries to print", Value: 10},
			},
			Action: handleRating(deps),
		},
		{
			Name:  "export",
			Usage: "Write counters to SQLite and CSV files",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "chat", Usage: "Only export this chat"},
				&cli.StringFlag{Name: "out", Usage: "Output directory", Value: "export"},
				&cli.StringFlag{Name: "format", Usage: "Comma separated formats (sqlite, csv)"},
			},
			Action: handleExport(deps),
		},
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Usage:   "Skip the confirmation prompt",
		Aliases: []string{"y"},
	}
}

func handleResetUser(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() < 2 {
			return ErrUserIDRequired
		}

		userID, err := parseID(c.Args().Get(0))
		if err != nil {
			return err
		}

		chatID, err := parseID(c.Args().Get(1))
		if err != nil {
			return err
		}

		if !c.Bool("yes") && !confirm("Reset user %d in chat %d?", userID, chatID) {
			return ErrAborted
		}

		rows, err := deps.DB.Service().Stats().ResetUser(ctx, userID, chatID)
		if err != nil {
			return err
		}

		deps.Rating.Invalidate(ctx, &chatID)
		deps.Logger.Info("Reset user",
			zap.Int64("userID", userID),
			zap.Int64("chatID", chatID),
			zap.Int64("rows", rows))

		return nil
	}
}

func handleResetChat(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() < 1 {
			return ErrChatIDRequired
		}

		chatID, err := parseID(c.Args().First())
		if err != nil {
			return err
		}

		if !c.Bool("yes") && !confirm("Reset every user of chat %d?", chatID) {
			return ErrAborted
		}

		rows, err := deps.DB.Service().Stats().ResetChat(ctx, chatID)
		if err != nil {
			return err
		}

		deps.Rating.Invalidate(ctx, &chatID)
		deps.Logger.Info("Reset chat", zap.Int64("chatID", chatID), zap.Int64("rows", rows))

		return nil
	}
}

func handleResetAll(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return ErrTooManyArgument
		}

		if !c.Bool("yes") && !confirm("Reset statistics of EVERY chat?") {
			return ErrAborted
		}

		rows, err := deps.DB.Service().Stats().ResetAll(ctx)
		if err != nil {
			return err
		}

		deps.Rating.Invalidate(ctx, nil)
		deps.Logger.Info("Reset all chats", zap.Int64("rows", rows))

		return nil
	}
}

func handlePrune(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		stats := deps.DB.Service().Stats()

		before, err := time.ParseInLocation(time.DateOnly, c.String("before"), stats.Location())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDate, err)
		}

		daily, err := stats.PruneDaily(ctx, before)
		if err != nil {
			return err
		}

		weekly, err := stats.PruneWeekly(ctx, before)
		if err != nil {
			return err
		}

		deps.Rating.Invalidate(ctx, nil)
		deps.Logger.Info("Pruned period stats",
			zap.Time("before", before),
			zap.Int64("daily", daily),
			zap.Int64("weekly", weekly))

		return nil
	}
}

func handleRating(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		chatID, err := parseID(c.String("chat"))
		if err != nil {
			return err
		}

		game, err := enum.GameString(c.String("game"))
		if err != nil {
			return err
		}

		period, err := enum.PeriodString(c.String("period"))
		if err != nil {
			return err
		}

		criterion, err := enum.CriterionString(c.String("criterion"))
		if err != nil {
			return err
		}

		q := rating.Query{ChatID: chatID, Game: game, Period: period, Criterion: criterion}

		entries, err := deps.Rating.Build(ctx, q, time.Now())
		if err != nil {
			return err
		}

		fmt.Println(rating.Format(q, entries, int(c.Int("top"))))

		return nil
	}
}

func handleExport(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		var chatID *int64

		if s := c.String("chat"); s != "" {
			id, err := parseID(s)
			if err != nil {
				return err
			}

			chatID = &id
		}

		var formats []export.Format

		if s := c.String("format"); s != "" {
			for _, f := range strings.Split(s, ",") {
				formats = append(formats, export.Format(strings.TrimSpace(f)))
			}
		}

		exporter := export.New(
			deps.DB.Service().Stats(), deps.DB.Model().User(), c.String("out"), formats...,
		)

		meta, err := exporter.Export(ctx, chatID)
		if err != nil {
			return err
		}

		deps.Logger.Info("Export complete",
			zap.String("out", c.String("out")),
			zap.Int("records", meta.Records),
			zap.Any("formats", meta.Formats))

		return nil
	}
}
