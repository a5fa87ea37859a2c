package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/luckyroll/casino/internal/database/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// AdminCommands returns the commands managing admins and blocks.
func AdminCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "admin",
			Usage: "Manage users allowed to run destructive bot commands",
			Commands: []*cli.Command{
				{
					Name:      "add",
					Usage:     "Grant admin rights",
					ArgsUsage: "USER_ID",
					Action:    handleAdminAdd(deps),
				},
				{
					Name:      "remove",
					Usage:     "Revoke admin rights granted with add",
					ArgsUsage: "USER_ID",
					Action:    handleAdminRemove(deps),
				},
				{
					Name:   "list",
					Usage:  "List admins from config and from the database",
					Action: handleAdminList(deps),
				},
			},
		},
		{
			Name:      "block",
			Usage:     "Keep a user from being scored",
			ArgsUsage: "USER_ID",
			Description: `Block a user in one chat, or in every chat when --chat is omitted:
  db block 12345 --chat -100123 --for 24h --reason spam`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "chat", Usage: "Chat ID (default: every chat)"},
				&cli.DurationFlag{Name: "for", Usage: "Block duration", Value: 24 * time.Hour},
				&cli.StringFlag{Name: "reason", Usage: "Reason shown in logs"},
			},
			Action: handleBlock(deps),
		},
		{
			Name:      "unblock",
			Usage:     "Lift a block",
			ArgsUsage: "USER_ID",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "chat", Usage: "Chat ID (default: the global block)"},
			},
			Action: handleUnblock(deps),
		},
	}
}

func userArg(c *cli.Command) (int64, error) {
	if c.Args().Len() != 1 {
		return 0, ErrUserIDRequired
	}

	return parseID(c.Args().First())
}

func chatFlag(c *cli.Command) (int64, error) {
	if s := c.String("chat"); s != "" {
		return parseID(s)
	}

	return types.GlobalChatID, nil
}

func handleAdminAdd(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		userID, err := userArg(c)
		if err != nil {
			return err
		}

		if err := deps.DB.Service().Moderation().AddAdmin(ctx, userID); err != nil {
			return err
		}

		deps.Logger.Info("Added admin", zap.Int64("userID", userID))

		return nil
	}
}

func handleAdminRemove(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		userID, err := userArg(c)
		if err != nil {
			return err
		}

		if err := deps.DB.Service().Moderation().RemoveAdmin(ctx, userID); err != nil {
			return err
		}

		deps.Logger.Info("Removed admin", zap.Int64("userID", userID))

		return nil
	}
}

func handleAdminList(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		for _, id := range deps.Config.Bot.AdminIDs {
			fmt.Printf("%d\tconfig\n", id)
		}

		admins, err := deps.DB.Service().Moderation().ListAdmins(ctx)
		if err != nil {
			return err
		}

		for _, admin := range admins {
			fmt.Printf("%d\tadded %s\n", admin.UserID, admin.AddedAt.Format(time.DateTime))
		}

		return nil
	}
}

func handleBlock(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		userID, err := userArg(c)
		if err != nil {
			return err
		}

		chatID, err := chatFlag(c)
		if err != nil {
			return err
		}

		return deps.DB.Service().Moderation().Block(ctx, &types.BlockEntry{
			UserID:  userID,
			ChatID:  chatID,
			Reason:  c.String("reason"),
			EndTime: time.Now().Add(c.Duration("for")),
		})
	}
}

func handleUnblock(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		userID, err := userArg(c)
		if err != nil {
			return err
		}

		chatID, err := chatFlag(c)
		if err != nil {
			return err
		}

		ok, err := deps.DB.Service().Moderation().Unblock(ctx, userID, chatID)
		if err != nil {
			return err
		}

		if !ok {
			deps.Logger.Warn("No block found",
				zap.Int64("userID", userID),
				zap.Int64("chatID", chatID))

			return nil
		}

		deps.Logger.Info("Unblocked user",
			zap.Int64("userID", userID),
			zap.Int64("chatID", chatID))

		return nil
	}
}
