package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/luckyroll/casino/internal/bot"
	"github.com/luckyroll/casino/internal/casino"
	"github.com/luckyroll/casino/internal/game"
	"github.com/luckyroll/casino/internal/ratelimit"
	"github.com/luckyroll/casino/internal/rating"
	"github.com/luckyroll/casino/internal/setup"
	"github.com/luckyroll/casino/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// BotLogDir specifies where bot log files are stored.
	BotLogDir = "logs/bot_logs"
)

var ErrTokenMissing = errors.New("telegram token is not configured")

func main() {
	if err := runCLI(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func runCLI() error {
	cmd := &cli.Command{
		Name:  "bot",
		Usage: "Run the Telegram dice casino bot",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "auto-migrate",
				Usage: "Apply pending migrations without asking",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			mode := setup.MigrationsPrompt
			if c.Bool("auto-migrate") {
				mode = setup.MigrationsAuto
			}

			return run(ctx, mode)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cmd.Run(ctx, os.Args)
}

func run(ctx context.Context, mode setup.MigrationMode) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, BotLogDir, mode)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup()

	cfg := &app.Config.Bot
	logger := app.Logger

	if cfg.Telegram.Token == "" {
		return ErrTokenMissing
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	api.Debug = cfg.Telegram.Debug

	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	limiter, err := ratelimit.New(cfg.RateLimit, app.RedisManager, logger)
	if err != nil {
		return err
	}

	opts, err := casino.NewOptions(cfg)
	if err != nil {
		return err
	}

	cache, releaseCache, err := rating.NewCache(
		time.Duration(cfg.RatingCacheTTL)*time.Millisecond, app.RedisManager,
	)
	if err != nil {
		return err
	}
	defer releaseCache()

	var (
		registry   = game.DefaultRegistry()
		stats      = app.DB.Service().Stats()
		moderation = app.DB.Service().Moderation()
		users      = app.DB.Model().User()
	)

	processor := casino.NewProcessor(
		registry, stats, moderation, users, limiter, bot.NewNotifier(api), opts, logger,
	)
	defer processor.Close()

	telegramBot := bot.New(
		api,
		processor,
		registry,
		stats,
		moderation,
		users,
		rating.NewBuilder(stats, users, cache, logger),
		cfg,
		logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return telegramBot.Run(ctx, api)
	})

	if memory, ok := limiter.(*ratelimit.MemoryLimiter); ok && cfg.RateLimit.SweepInterval > 0 {
		g.Go(func() error {
			return memory.Run(ctx, time.Duration(cfg.RateLimit.SweepInterval)*time.Millisecond)
		})
	}

	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Shutting down")

	return nil
}
